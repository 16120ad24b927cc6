package graph

import (
	"context"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/99designs/gqlgen/graphql/executor"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/AlibekovAA/postgraph/internal/common/constants"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/observability/metrics"
	"github.com/AlibekovAA/postgraph/internal/pubsub"
)

// Executor runs operations through gqlgen's executor, which parses,
// validates and coerces variables, on top of executableSchema.
type Executor struct {
	gql *executor.Executor
}

func NewExecutor(schema *ast.Schema, resolver *Resolver, log *logger.Logger) *Executor {
	return &Executor{gql: executor.New(&executableSchema{schema: schema, resolver: resolver, log: log})}
}

// Operation is a parsed, validated document with coerced variables,
// ready to run.
type Operation struct {
	rc *graphql.OperationContext
}

func (o *Operation) Type() ast.Operation {
	return o.rc.Operation.Operation
}

func (o *Operation) Name() string {
	return o.rc.Operation.Name
}

// Prepare parses and validates the document, selects the operation and
// coerces variables. A non-nil Response is a request error.
func (e *Executor) Prepare(ctx context.Context, req Request) (*Operation, *Response) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, requestErrorResponse(gqlerror.List{newError(CodeParseFailed, "query document is empty", nil)})
	}
	if len(req.Query) > constants.MaxQueryLength {
		return nil, requestErrorResponse(gqlerror.List{newError(CodeParseFailed, "query document is too large", nil)})
	}

	rc, errs := e.gql.CreateOperationContext(ctx, &graphql.RawParams{
		Query:         req.Query,
		OperationName: req.OperationName,
		Variables:     req.Variables,
	})
	if len(errs) > 0 {
		switch {
		case rc.Doc == nil:
			countErrors(errs)
		case rc.Operation == nil && req.OperationName == "":
			errs = gqlerror.List{newError(CodeValidationFailed, "operationName is required when the document contains several operations", nil)}
		case rc.Operation == nil:
			errs = gqlerror.List{newError(CodeValidationFailed, "operation not found", nil)}
		default:
			errs = withCode(errs, CodeBadUserInput)
		}
		return nil, requestErrorResponse(errs)
	}
	rc.DisableIntrospection = false

	return &Operation{rc: rc}, nil
}

// Execute runs a query or mutation. Root fields run one after another, so
// mutations observe each other's effects in document order.
func (e *Executor) Execute(ctx context.Context, op *Operation) *Response {
	if op.Type() == ast.Subscription {
		return requestErrorResponse(gqlerror.List{
			newError(CodeBadUserInput, "subscriptions are served over the graphql-transport-ws protocol", nil),
		})
	}

	handler, ctx := e.gql.DispatchOperation(ctx, op.rc)
	resp := fromGraphQL(handler(ctx))

	outcome := "success"
	if len(resp.Errors) > 0 {
		outcome = "error"
	}
	metrics.GraphQLOperationsTotal.WithLabelValues(string(op.Type()), outcome).Inc()
	return resp
}

// Do is Prepare followed by Execute.
func (e *Executor) Do(ctx context.Context, req Request) *Response {
	op, resp := e.Prepare(ctx, req)
	if resp != nil {
		return resp
	}
	return e.Execute(ctx, op)
}

// Stream yields one response per event of a subscription's source.
type Stream struct {
	next  graphql.ResponseHandler
	setup *subscriptionSetup
}

// Subscribe authenticates the subscription root field and registers with
// the event bus. The returned Response carries the errors when it fails.
func (e *Executor) Subscribe(ctx context.Context, op *Operation) (*Stream, *Response) {
	if op.Type() != ast.Subscription {
		return nil, requestErrorResponse(gqlerror.List{
			newError(CodeBadUserInput, "operation is not a subscription", nil),
		})
	}

	setup := &subscriptionSetup{}
	handler, _ := e.gql.DispatchOperation(withSubscriptionSetup(ctx, setup), op.rc)
	if setup.failed != nil {
		metrics.GraphQLOperationsTotal.WithLabelValues(string(ast.Subscription), "error").Inc()
		return nil, setup.failed
	}

	metrics.GraphQLOperationsTotal.WithLabelValues(string(ast.Subscription), "success").Inc()
	return &Stream{next: handler, setup: setup}, nil
}

// Next blocks until the next event and completes the selection set on it.
// It returns the bus error once the subscription ends, for example
// pubsub.ErrSubscriberOverflow.
func (s *Stream) Next(ctx context.Context) (*Response, error) {
	resp := s.next(ctx)
	if resp == nil {
		if s.setup.err != nil {
			return nil, s.setup.err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, pubsub.ErrSubscriptionClosed
	}
	return fromGraphQL(resp), nil
}

func (s *Stream) Close() {
	if s.setup.sub != nil {
		s.setup.sub.Close()
	}
}

func fromGraphQL(resp *graphql.Response) *Response {
	if resp == nil {
		return &Response{}
	}
	return &Response{Data: resp.Data, Errors: resp.Errors}
}
