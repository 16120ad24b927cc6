package graph

import (
	"fmt"

	"github.com/99designs/gqlgen/graphql/introspection"
)

// resolveIntrospectionField serves the __Schema family of types on top of
// gqlgen's wrappers around the parsed schema.
func resolveIntrospectionField(typeName string, obj any, field string, args map[string]any) (any, error) {
	includeDeprecated, _ := args["includeDeprecated"].(bool)

	switch typeName {
	case "__Schema":
		s, ok := obj.(*introspection.Schema)
		if !ok {
			break
		}
		switch field {
		case "description":
			return s.Description(), nil
		case "types":
			return typeRefs(s.Types()), nil
		case "queryType":
			return s.QueryType(), nil
		case "mutationType":
			return s.MutationType(), nil
		case "subscriptionType":
			return s.SubscriptionType(), nil
		case "directives":
			return directiveRefs(s.Directives()), nil
		}

	case "__Type":
		t, ok := obj.(*introspection.Type)
		if !ok {
			break
		}
		kind := t.Kind()
		switch field {
		case "kind":
			return kind, nil
		case "name":
			return t.Name(), nil
		case "description":
			return t.Description(), nil
		case "fields":
			if kind != "OBJECT" && kind != "INTERFACE" {
				return nil, nil
			}
			return fieldRefs(t.Fields(includeDeprecated)), nil
		case "interfaces":
			if kind != "OBJECT" && kind != "INTERFACE" {
				return nil, nil
			}
			return typeRefs(t.Interfaces()), nil
		case "possibleTypes":
			if kind != "INTERFACE" && kind != "UNION" {
				return nil, nil
			}
			return typeRefs(t.PossibleTypes()), nil
		case "enumValues":
			if kind != "ENUM" {
				return nil, nil
			}
			return enumValueRefs(t.EnumValues(includeDeprecated)), nil
		case "inputFields":
			if kind != "INPUT_OBJECT" {
				return nil, nil
			}
			return inputValueRefs(t.InputFields()), nil
		case "ofType":
			return t.OfType(), nil
		case "specifiedByURL", "isOneOf":
			return nil, nil
		}

	case "__Field":
		f, ok := obj.(*introspection.Field)
		if !ok {
			break
		}
		switch field {
		case "name":
			return f.Name, nil
		case "description":
			return f.Description(), nil
		case "args":
			return inputValueRefs(f.Args), nil
		case "type":
			return f.Type, nil
		case "isDeprecated":
			return f.IsDeprecated(), nil
		case "deprecationReason":
			return f.DeprecationReason(), nil
		}

	case "__InputValue":
		v, ok := obj.(*introspection.InputValue)
		if !ok {
			break
		}
		switch field {
		case "name":
			return v.Name, nil
		case "description":
			return v.Description(), nil
		case "type":
			return v.Type, nil
		case "defaultValue":
			return v.DefaultValue, nil
		case "isDeprecated":
			return false, nil
		case "deprecationReason":
			return nil, nil
		}

	case "__EnumValue":
		v, ok := obj.(*introspection.EnumValue)
		if !ok {
			break
		}
		switch field {
		case "name":
			return v.Name, nil
		case "description":
			return v.Description(), nil
		case "isDeprecated":
			return v.IsDeprecated(), nil
		case "deprecationReason":
			return v.DeprecationReason(), nil
		}

	case "__Directive":
		d, ok := obj.(*introspection.Directive)
		if !ok {
			break
		}
		switch field {
		case "name":
			return d.Name, nil
		case "description":
			return d.Description(), nil
		case "locations":
			return d.Locations, nil
		case "args":
			return inputValueRefs(d.Args), nil
		case "isRepeatable":
			return d.IsRepeatable, nil
		}
	}

	return nil, fmt.Errorf("cannot resolve %s.%s on %T", typeName, field, obj)
}

// The wrapper methods use pointer receivers, so slices are handed to the
// executor as pointers into the original backing arrays.

func typeRefs(in []introspection.Type) []*introspection.Type {
	out := make([]*introspection.Type, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}

func fieldRefs(in []introspection.Field) []*introspection.Field {
	out := make([]*introspection.Field, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}

func inputValueRefs(in []introspection.InputValue) []*introspection.InputValue {
	out := make([]*introspection.InputValue, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}

func enumValueRefs(in []introspection.EnumValue) []*introspection.EnumValue {
	out := make([]*introspection.EnumValue, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}

func directiveRefs(in []introspection.Directive) []*introspection.Directive {
	out := make([]*introspection.Directive, len(in))
	for i := range in {
		out[i] = &in[i]
	}
	return out
}
