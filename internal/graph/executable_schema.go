package graph

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/introspection"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/observability/metrics"
	"github.com/AlibekovAA/postgraph/internal/pubsub"
)

var errIntrospectionDisabled = errors.New("introspection disabled")

// executableSchema implements graphql.ExecutableSchema over the parsed SDL
// and the resolver's field tables.
type executableSchema struct {
	schema   *ast.Schema
	resolver *Resolver
	log      *logger.Logger
}

var _ graphql.ExecutableSchema = (*executableSchema)(nil)

func (es *executableSchema) Schema() *ast.Schema {
	return es.schema
}

func (es *executableSchema) Complexity(_, _ string, _ int, _ map[string]any) (int, bool) {
	return 0, false
}

func (es *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	opCtx := graphql.GetOperationContext(ctx)

	switch opCtx.Operation.Operation {
	case ast.Query, ast.Mutation:
		root, fields := es.schema.Query, es.resolver.query
		if opCtx.Operation.Operation == ast.Mutation {
			root, fields = es.schema.Mutation, es.resolver.mutation
		}
		var done bool
		return func(ctx context.Context) *graphql.Response {
			if done {
				return nil
			}
			done = true
			x := es.newExecution(opCtx)
			return x.response(x.executeRoot(ctx, root, fields))
		}
	case ast.Subscription:
		return es.subscribe(ctx, opCtx)
	}
	return graphql.OneShot(graphql.ErrorResponse(ctx, "unsupported GraphQL operation"))
}

type subscriptionSetupKey struct{}

// subscriptionSetup carries the outcome of registering a subscription
// back to Executor.Subscribe, and the terminal bus error to Stream.Next.
type subscriptionSetup struct {
	failed *Response
	sub    *pubsub.Subscription
	err    error
}

func withSubscriptionSetup(ctx context.Context, s *subscriptionSetup) context.Context {
	return context.WithValue(ctx, subscriptionSetupKey{}, s)
}

func (es *executableSchema) subscribe(ctx context.Context, opCtx *graphql.OperationContext) graphql.ResponseHandler {
	setup, _ := ctx.Value(subscriptionSetupKey{}).(*subscriptionSetup)
	if setup == nil {
		setup = &subscriptionSetup{}
	}
	fail := func(resp *Response) graphql.ResponseHandler {
		setup.failed = resp
		return graphql.OneShot(&graphql.Response{Errors: resp.Errors})
	}

	collected := graphql.CollectFields(opCtx, opCtx.Operation.SelectionSet, []string{es.schema.Subscription.Name})
	if len(collected) != 1 {
		return fail(requestErrorResponse(gqlerror.List{
			newError(CodeValidationFailed, "subscription must select exactly one root field", nil),
		}))
	}
	f := collected[0]
	path := ast.Path{ast.PathName(f.Alias)}

	entry, ok := es.resolver.subscription[f.Name]
	if !ok {
		return fail(&Response{Errors: gqlerror.List{newError(CodeInternal, "unknown subscription field", path)}})
	}

	fieldCtx, err := es.resolver.authenticate(ctx, entry.public)
	if err != nil {
		return fail(&Response{Errors: gqlerror.List{ToGraphQLError(ctx, es.log, err, path)}})
	}
	es.newExecution(opCtx).audit(fieldCtx, f.Name)

	sub, err := entry.subscribe(fieldCtx, f.ArgumentMap(opCtx.Variables))
	if err != nil {
		return fail(&Response{Errors: gqlerror.List{ToGraphQLError(fieldCtx, es.log, err, path)}})
	}
	setup.sub = sub

	return func(ctx context.Context) *graphql.Response {
		ev, err := sub.Next(ctx)
		if err != nil {
			setup.err = err
			return nil
		}

		x := es.newExecution(opCtx)
		value, ok := x.completeValue(ctx, f.Definition.Type, f, ev.Payload, path)
		if !ok {
			return x.response(nil)
		}
		data := graphql.NewFieldSet(collected)
		data.Values[0] = value
		return x.response(data)
	}
}

type execution struct {
	es    *executableSchema
	opCtx *graphql.OperationContext
	errs  gqlerror.List
}

func (es *executableSchema) newExecution(opCtx *graphql.OperationContext) *execution {
	return &execution{es: es, opCtx: opCtx}
}

// response renders data, nil meaning the error reached the root.
func (x *execution) response(data graphql.Marshaler) *graphql.Response {
	resp := &graphql.Response{Errors: x.errs}
	if data != nil {
		var buf bytes.Buffer
		data.MarshalGQL(&buf)
		resp.Data = buf.Bytes()
	}
	return resp
}

func (x *execution) addError(ctx context.Context, err error, path ast.Path) {
	x.errs = append(x.errs, ToGraphQLError(ctx, x.es.log, err, path))
}

func (x *execution) audit(ctx context.Context, field string) {
	caller, ok := CallerFromContext(ctx)
	if !ok || x.es.log == nil {
		return
	}
	x.es.log.WithFields(ctx, logger.Fields{
		"caller_id": caller.String(),
		"operation": string(x.opCtx.Operation.Operation),
		"field":     field,
		"action":    "graphql_field",
	}).Debug("resolving root field")
}

func (x *execution) executeRoot(ctx context.Context, root *ast.Definition, fields map[string]rootField) graphql.Marshaler {
	collected := graphql.CollectFields(x.opCtx, x.opCtx.Operation.SelectionSet, []string{root.Name})
	data := graphql.NewFieldSet(collected)

	for i, f := range collected {
		path := ast.Path{ast.PathName(f.Alias)}

		var (
			value graphql.Marshaler
			ok    bool
		)
		switch f.Name {
		case "__typename":
			value, ok = graphql.MarshalString(root.Name), true
		case "__schema":
			value, ok = x.introspect(ctx, f, path, func() any { return introspection.WrapSchema(x.es.schema) })
		case "__type":
			value, ok = x.introspect(ctx, f, path, func() any { return x.lookupType(f.ArgumentMap(x.opCtx.Variables)) })
		default:
			value, ok = x.executeRootField(ctx, fields, f, path)
		}
		if !ok {
			return nil
		}
		data.Values[i] = value
	}
	return data
}

func (x *execution) introspect(ctx context.Context, f graphql.CollectedField, path ast.Path, wrap func() any) (graphql.Marshaler, bool) {
	if x.opCtx.DisableIntrospection {
		x.addError(ctx, badInput(errIntrospectionDisabled.Error()), path)
		return nullFor(f.Definition.Type)
	}
	return x.completeValue(ctx, f.Definition.Type, f, wrap(), path)
}

func (x *execution) executeRootField(ctx context.Context, fields map[string]rootField, f graphql.CollectedField, path ast.Path) (graphql.Marshaler, bool) {
	start := time.Now()
	defer func() {
		metrics.GraphQLFieldDurationSeconds.WithLabelValues(f.Name).Observe(time.Since(start).Seconds())
	}()

	entry, ok := fields[f.Name]
	if !ok {
		x.addError(ctx, fmt.Errorf("no handler for root field %q", f.Name), path)
		return nullFor(f.Definition.Type)
	}

	fieldCtx, err := x.es.resolver.authenticate(ctx, entry.public)
	if err != nil {
		x.addError(ctx, err, path)
		return nullFor(f.Definition.Type)
	}
	x.audit(fieldCtx, f.Name)

	raw, err := entry.resolve(fieldCtx, f.ArgumentMap(x.opCtx.Variables))
	if err != nil {
		x.addError(fieldCtx, err, path)
		return nullFor(f.Definition.Type)
	}
	return x.completeValue(fieldCtx, f.Definition.Type, f, raw, path)
}

func (x *execution) lookupType(args map[string]any) any {
	name, _ := args["name"].(string)
	def, ok := x.es.schema.Types[name]
	if !ok {
		return nil
	}
	return introspection.WrapTypeFromDef(x.es.schema, def)
}

// executeSelectionSet returns false when a non-null field resolved to
// null; the caller then nulls the nearest nullable ancestor.
func (x *execution) executeSelectionSet(ctx context.Context, typeName string, obj any, fields []graphql.CollectedField, path ast.Path) (graphql.Marshaler, bool) {
	out := graphql.NewFieldSet(fields)
	for i, f := range fields {
		fieldPath := appendPath(path, ast.PathName(f.Alias))

		if f.Name == "__typename" {
			out.Values[i] = graphql.MarshalString(typeName)
			continue
		}

		raw, err := x.es.resolver.resolveObjectField(ctx, typeName, obj, f.Name, f.ArgumentMap(x.opCtx.Variables))
		if err != nil {
			x.addError(ctx, err, fieldPath)
			if f.Definition.Type.NonNull {
				return nil, false
			}
			out.Values[i] = graphql.Null
			continue
		}

		value, ok := x.completeValue(ctx, f.Definition.Type, f, raw, fieldPath)
		if !ok {
			return nil, false
		}
		out.Values[i] = value
	}
	return out, true
}

func (x *execution) completeValue(ctx context.Context, t *ast.Type, f graphql.CollectedField, value any, path ast.Path) (graphql.Marshaler, bool) {
	if isNull(value) {
		if t.NonNull {
			x.addError(ctx, fmt.Errorf("non-null field %s resolved to null", path.String()), path)
			return nil, false
		}
		return graphql.Null, true
	}

	if t.Elem != nil {
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			x.addError(ctx, fmt.Errorf("expected a list for %s, got %T", path.String(), value), path)
			return nullFor(t)
		}
		items := make(graphql.Array, rv.Len())
		for i := range items {
			item, ok := x.completeValue(ctx, t.Elem, f, rv.Index(i).Interface(), appendPath(path, ast.PathIndex(i)))
			if !ok {
				return nullFor(t)
			}
			items[i] = item
		}
		return items, true
	}

	def, ok := x.es.schema.Types[t.NamedType]
	if !ok {
		x.addError(ctx, fmt.Errorf("unknown type %q", t.NamedType), path)
		return nullFor(t)
	}

	switch def.Kind {
	case ast.Scalar, ast.Enum:
		out, err := marshalLeaf(def.Name, value)
		if err != nil {
			x.addError(ctx, err, path)
			return nullFor(t)
		}
		if out == graphql.Null && t.NonNull {
			x.addError(ctx, fmt.Errorf("non-null field %s resolved to null", path.String()), path)
			return nil, false
		}
		return out, true
	case ast.Object:
		fields := graphql.CollectFields(x.opCtx, f.Selections, []string{def.Name})
		obj, ok := x.executeSelectionSet(ctx, def.Name, value, fields, path)
		if !ok {
			return nullFor(t)
		}
		return obj, true
	}

	x.addError(ctx, fmt.Errorf("unsupported type kind %s", def.Kind), path)
	return nullFor(t)
}

func nullFor(t *ast.Type) (graphql.Marshaler, bool) {
	if t.NonNull {
		return nil, false
	}
	return graphql.Null, true
}

// isNull treats nil pointers and interfaces as null. Nil slices are empty
// lists, not null.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map:
		return rv.IsNil()
	}
	return false
}

func appendPath(path ast.Path, elem ast.PathElement) ast.Path {
	out := make(ast.Path, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

// marshalLeaf renders a scalar or enum value with gqlgen's marshalers.
func marshalLeaf(typeName string, value any) (graphql.Marshaler, error) {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return graphql.Null, nil
		}
		rv = rv.Elem()
	}
	value = rv.Interface()

	switch typeName {
	case "ID":
		switch v := value.(type) {
		case string:
			return graphql.MarshalID(v), nil
		case fmt.Stringer:
			return graphql.MarshalID(v.String()), nil
		}
		if n, err := toInt64(value); err == nil {
			return graphql.MarshalID(strconv.FormatInt(n, 10)), nil
		}
	case "Int":
		if n, err := toInt64(value); err == nil {
			return graphql.MarshalInt64(n), nil
		}
	case "Float":
		switch v := value.(type) {
		case float64:
			return graphql.MarshalFloat(v), nil
		case float32:
			return graphql.MarshalFloat(float64(v)), nil
		}
		if n, err := toInt64(value); err == nil {
			return graphql.MarshalFloat(float64(n)), nil
		}
	case "Boolean":
		if b, ok := value.(bool); ok {
			return graphql.MarshalBoolean(b), nil
		}
	case "DateTime":
		if t, ok := value.(time.Time); ok {
			return graphql.MarshalTime(t.UTC()), nil
		}
	default:
		switch v := value.(type) {
		case string:
			return graphql.MarshalString(v), nil
		case fmt.Stringer:
			return graphql.MarshalString(v.String()), nil
		}
	}
	return nil, fmt.Errorf("cannot serialize %T as %s", value, typeName)
}
