package jwtverify

import (
	"context"
	"net/http"
	"strings"

	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	userdomain "github.com/AlibekovAA/postgraph/internal/user/domain"
)

const bearerPrefix = "Bearer "

type contextKey string

const authorizationKey contextKey = "authorization"

type TokenVerifier interface {
	VerifyToken(token string) (userdomain.ID, error)
}

// Guard resolves the caller identity for an operation. The identity is
// only used for audit logging; any valid token may call any operation.
type Guard struct {
	verifier TokenVerifier
	log      *logger.Logger
}

func NewGuard(verifier TokenVerifier, log *logger.Logger) *Guard {
	return &Guard{verifier: verifier, log: log}
}

func (g *Guard) Authenticate(ctx context.Context) (userdomain.ID, error) {
	raw, ok := AuthorizationFromContext(ctx)
	if !ok || raw == "" {
		return 0, commonerrors.ErrUnauthenticated
	}

	token := strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
	if token == "" || strings.ContainsAny(token, " \t") {
		return 0, commonerrors.ErrUnauthenticated
	}

	userID, err := g.verifier.VerifyToken(token)
	if err != nil {
		if g.log != nil {
			g.log.WithFields(ctx, logger.Fields{
				"action": "authenticate_failed",
			}).Warnf("token verification failed: %v", err)
		}
		return 0, commonerrors.ErrUnauthenticated.WithCause(err)
	}

	return userID, nil
}

// WithAuthorization stores the raw credential header value for Guard.
func WithAuthorization(ctx context.Context, value string) context.Context {
	return context.WithValue(ctx, authorizationKey, value)
}

func AuthorizationFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(authorizationKey).(string)
	return v, ok
}

// CaptureAuthorization copies the Authorization header into the request
// context. It never rejects: signup and login are public.
func CaptureAuthorization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if raw := r.Header.Get("Authorization"); raw != "" {
			r = r.WithContext(WithAuthorization(r.Context(), raw))
		}
		next.ServeHTTP(w, r)
	})
}
