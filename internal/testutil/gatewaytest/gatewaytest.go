// Package gatewaytest assembles the full operation stack on the in-memory
// store for transport and dispatcher tests.
package gatewaytest

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	authservice "github.com/AlibekovAA/postgraph/internal/auth/service"
	"github.com/AlibekovAA/postgraph/internal/common/clock"
	commoncrypto "github.com/AlibekovAA/postgraph/internal/common/crypto"
	"github.com/AlibekovAA/postgraph/internal/common/jwtverify"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/graph"
	postservice "github.com/AlibekovAA/postgraph/internal/post/service"
	"github.com/AlibekovAA/postgraph/internal/pubsub"
	"github.com/AlibekovAA/postgraph/internal/testutil"
	userdomain "github.com/AlibekovAA/postgraph/internal/user/domain"
	userservice "github.com/AlibekovAA/postgraph/internal/user/service"
)

const Secret = "0123456789abcdef0123456789abcdef"

type Env struct {
	Executor *graph.Executor
	Bus      *pubsub.Bus
	Store    *testutil.MemoryStore
	Creds    *authservice.CredentialService
	Guard    *jwtverify.Guard
	Log      *logger.Logger
}

type Option func(*options)

type options struct {
	queueSize int
}

// WithQueueSize sets the per-subscriber bus queue.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

func New(t testing.TB, opts ...Option) *Env {
	t.Helper()

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	log, err := logger.New("", "test", "error")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	store := testutil.NewMemoryStore()
	bus := pubsub.New(o.queueSize, log)
	issuer := authservice.NewTokenIssuer(Secret, clock.NewMockClock(time.Unix(1700000000, 0)))
	creds := authservice.NewCredentialService(commoncrypto.NewBcryptHasher(bcrypt.MinCost), issuer)
	guard := jwtverify.NewGuard(creds, log)

	resolver := graph.NewResolver(graph.Dependencies{
		Auth:  authservice.NewAuthService(store.Users(), creds, log),
		Users: userservice.New(store.Users(), log),
		Posts: postservice.New(store.Posts(), bus, log),
		Bus:   bus,
		Guard: guard,
		Log:   log,
	})

	return &Env{
		Executor: graph.NewExecutor(graph.NewSchema(), resolver, log),
		Bus:      bus,
		Store:    store,
		Creds:    creds,
		Guard:    guard,
		Log:      log,
	}
}

// Token issues a bearer token for an arbitrary id; the guard never checks
// that the user exists.
func (e *Env) Token(t testing.TB, id userdomain.ID) string {
	t.Helper()
	token, err := e.Creds.IssueToken(id)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

// User stores a passwordless user directly and returns it with a token.
func (e *Env) User(t testing.TB, name, email string) (userdomain.User, string) {
	t.Helper()
	u, err := e.Store.Users().Create(context.Background(), userdomain.NewUser{Name: name, Email: email})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u, e.Token(t, u.ID)
}

// Authorized returns a context carrying the bearer token the way the
// transports store it.
func Authorized(ctx context.Context, token string) context.Context {
	return jwtverify.WithAuthorization(ctx, "Bearer "+token)
}
