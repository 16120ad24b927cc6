package graph

import (
	"context"
	"errors"
	"strconv"

	"github.com/99designs/gqlgen/graphql/errcode"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/common/validation"
	"github.com/AlibekovAA/postgraph/internal/observability/metrics"
)

const (
	CodeParseFailed      = errcode.ParseFailed
	CodeValidationFailed = errcode.ValidationFailed
	CodeBadUserInput     = "BAD_USER_INPUT"
	CodeInternal         = "INTERNAL_ERROR"
)

func newError(code, message string, path ast.Path) *gqlerror.Error {
	metrics.GraphQLErrorsTotal.WithLabelValues(code).Inc()
	return &gqlerror.Error{
		Message:    message,
		Path:       path,
		Extensions: map[string]interface{}{"code": code},
	}
}

// badInput reports a malformed argument that passed document validation,
// for example an ID that is not numeric.
func badInput(message string) error {
	return &gqlerror.Error{
		Message:    message,
		Extensions: map[string]interface{}{"code": CodeBadUserInput},
	}
}

func withCode(errs gqlerror.List, code string) gqlerror.List {
	for _, e := range errs {
		if e.Extensions == nil {
			e.Extensions = map[string]interface{}{}
		}
		e.Extensions["code"] = code
		metrics.GraphQLErrorsTotal.WithLabelValues(code).Inc()
	}
	return errs
}

// countErrors records errors whose code gqlgen already set.
func countErrors(errs gqlerror.List) {
	for _, e := range errs {
		code, _ := e.Extensions["code"].(string)
		if code == "" {
			code = CodeInternal
		}
		metrics.GraphQLErrorsTotal.WithLabelValues(code).Inc()
	}
}

// ToGraphQLError maps a resolver or transport error onto the client-facing
// shape. Only domain errors expose their message; everything else is
// logged and reported as INTERNAL_ERROR.
func ToGraphQLError(ctx context.Context, log *logger.Logger, err error, path ast.Path) *gqlerror.Error {
	var gqlErr *gqlerror.Error
	if errors.As(err, &gqlErr) {
		code, _ := gqlErr.Extensions["code"].(string)
		if code == "" {
			code = CodeBadUserInput
		}
		return newError(code, gqlErr.Message, path)
	}

	if de, ok := commonerrors.AsDomainError(err); ok {
		metrics.DomainErrorsTotal.WithLabelValues(
			string(de.Category()),
			de.Code(),
			strconv.Itoa(de.HTTPStatus()),
		).Inc()

		if de.Category() == commonerrors.CategoryInternal && log != nil {
			log.WithFields(ctx, logger.Fields{
				"path":   path.String(),
				"action": "graphql_internal_error",
			}).Errorf("resolver failed: %v", err)
		}

		message := de.Message()
		if details := validation.Details(err); details != "" {
			message = message + ": " + details
		}
		return newError(de.Code(), message, path)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newError(commonerrors.ErrServiceUnavailable.Code(), "request timed out", path)
	}

	if log != nil {
		log.WithFields(ctx, logger.Fields{
			"path":   path.String(),
			"action": "graphql_internal_error",
		}).Errorf("resolver failed: %v", err)
	}
	return newError(CodeInternal, commonerrors.ErrInternalError.Message(), path)
}
