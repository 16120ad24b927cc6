package graph

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Argument maps come from ast.Field.ArgumentMap: literals decode to
// string, int64, bool or float64; variables may also carry json.Number.

func stringArg(args map[string]any, name string) (string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", badInput(fmt.Sprintf("argument %q must be a string", name))
	}
	return s, nil
}

func optionalStringArg(args map[string]any, name string) (*string, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	s, err := stringArg(args, name)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func optionalBoolArg(args map[string]any, name string) (*bool, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, badInput(fmt.Sprintf("argument %q must be a boolean", name))
	}
	return &b, nil
}

func optionalIntArg(args map[string]any, name string) (*int, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return nil, nil
	}
	n, err := toInt64(v)
	if err != nil || n < math.MinInt32 || n > math.MaxInt32 {
		return nil, badInput(fmt.Sprintf("argument %q must be a 32-bit integer", name))
	}
	i := int(n)
	return &i, nil
}

// idArg accepts the string and integer forms an ID may take and requires
// a positive int64.
func idArg(args map[string]any, name string) (int64, error) {
	v, ok := args[name]
	if !ok || v == nil {
		return 0, badInput(fmt.Sprintf("argument %q is required", name))
	}
	var (
		n   int64
		err error
	)
	if s, isString := v.(string); isString {
		n, err = strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	} else {
		n, err = toInt64(v)
	}
	if err != nil || n <= 0 {
		return 0, badInput(fmt.Sprintf("argument %q must be a positive integer id", name))
	}
	return n, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		return n.Int64()
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("unexpected %T", v)
}
