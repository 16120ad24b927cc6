package http

import (
	"net/http"

	"github.com/AlibekovAA/postgraph/internal/common/httpmetrics"
	"github.com/AlibekovAA/postgraph/internal/common/jwtverify"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
)

type BaseOptions struct {
	MaxRequestSize int64
	RateLimiter    *RateLimiter
}

// BuildBaseHandler wraps handler with the shared middleware chain, from
// the outside in: security headers, CSP, trace id, recovery, rate limit,
// body limit, metrics, Authorization capture.
func BuildBaseHandler(log *logger.Logger, handler http.Handler, opts BaseOptions) http.Handler {
	metrics := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(opts.MaxRequestSize)
	securityHeaders := SecurityHeadersMiddleware
	csp := ContentSecurityPolicyMiddleware("")

	inner := maxRequestSize(metrics.Wrap(jwtverify.CaptureAuthorization(handler)))
	if opts.RateLimiter != nil {
		inner = opts.RateLimiter.Middleware()(inner)
	}

	return securityHeaders(csp(TraceIDMiddleware(recovery(inner))))
}
