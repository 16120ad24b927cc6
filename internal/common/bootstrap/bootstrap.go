// Package bootstrap wires the gateway's components from configuration.
package bootstrap

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authservice "github.com/AlibekovAA/postgraph/internal/auth/service"
	"github.com/AlibekovAA/postgraph/internal/common/clock"
	"github.com/AlibekovAA/postgraph/internal/common/config"
	"github.com/AlibekovAA/postgraph/internal/common/constants"
	commoncrypto "github.com/AlibekovAA/postgraph/internal/common/crypto"
	"github.com/AlibekovAA/postgraph/internal/common/db"
	commonhttp "github.com/AlibekovAA/postgraph/internal/common/http"
	"github.com/AlibekovAA/postgraph/internal/common/jwtverify"
	"github.com/AlibekovAA/postgraph/internal/common/logger"
	"github.com/AlibekovAA/postgraph/internal/common/resilience"
	"github.com/AlibekovAA/postgraph/internal/common/server"
	"github.com/AlibekovAA/postgraph/internal/graph"
	graphhttp "github.com/AlibekovAA/postgraph/internal/graph/http"
	postrepo "github.com/AlibekovAA/postgraph/internal/post/repository"
	postservice "github.com/AlibekovAA/postgraph/internal/post/service"
	"github.com/AlibekovAA/postgraph/internal/pubsub"
	"github.com/AlibekovAA/postgraph/internal/subscription/websocket"
	userrepo "github.com/AlibekovAA/postgraph/internal/user/repository"
	userservice "github.com/AlibekovAA/postgraph/internal/user/service"
)

type GatewayApp struct {
	Config      config.GatewayConfig
	Log         *logger.Logger
	Pool        *pgxpool.Pool
	Bus         *pubsub.Bus
	Executor    *graph.Executor
	Hub         *websocket.Hub
	RateLimiter *commonhttp.RateLimiter
	Handler     http.Handler

	stopMetrics context.CancelFunc
}

// Stores is the persistence pair the operation stack runs on.
type Stores struct {
	Users userrepo.Repository
	Posts postrepo.Repository
}

// NewLogger opens the service logger described by cfg.
func NewLogger(cfg config.GatewayConfig) (*logger.Logger, error) {
	return logger.New(cfg.LogDir, "gateway", cfg.LogLevel)
}

// Connect opens the pool and, when migrate is set, applies the embedded
// migrations before anything else touches the store.
func Connect(ctx context.Context, cfg config.GatewayConfig, log *logger.Logger, migrate bool) (*pgxpool.Pool, error) {
	pool := db.NewPool(log, cfg.DatabaseURL)
	if migrate {
		if err := db.Migrate(ctx, log, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return pool, nil
}

func NewGatewayApp(cfg config.GatewayConfig, log *logger.Logger, pool *pgxpool.Pool) *GatewayApp {
	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  int32(cfg.CircuitBreakerThreshold),
		Timeout:    cfg.CircuitBreakerTimeout,
		ResetAfter: cfg.CircuitBreakerReset,
		Name:       "postgres",
		Logger:     log,
	})
	runner := db.NewRunner(breaker, db.DefaultRetryConfig, log)

	stores := Stores{
		Users: userrepo.NewPgRepository(pool, runner),
		Posts: postrepo.NewPgRepository(pool, runner),
	}

	checks := map[string]commonhttp.HealthCheck{
		"postgres": pool.Ping,
	}

	app := Assemble(cfg, log, stores, checks)
	app.Pool = pool

	ctx, cancel := context.WithCancel(context.Background())
	db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)
	app.stopMetrics = cancel

	return app
}

// Assemble builds everything above the store: credentials, services, bus,
// executor and both transports behind the shared middleware chain.
func Assemble(cfg config.GatewayConfig, log *logger.Logger, stores Stores, checks map[string]commonhttp.HealthCheck) *GatewayApp {
	issuer := authservice.NewTokenIssuer(cfg.JWTSecret, clock.NewRealClock())
	creds := authservice.NewCredentialService(commoncrypto.NewBcryptHasher(cfg.BcryptCost), issuer)
	guard := jwtverify.NewGuard(creds, log)
	bus := pubsub.New(cfg.SubscriberQueueSize, log)

	resolver := graph.NewResolver(graph.Dependencies{
		Auth:  authservice.NewAuthService(stores.Users, creds, log),
		Users: userservice.New(stores.Users, log),
		Posts: postservice.New(stores.Posts, bus, log),
		Bus:   bus,
		Guard: guard,
		Log:   log,
	})
	exec := graph.NewExecutor(graph.NewSchema(), resolver, log)

	hub := websocket.NewHub(cfg.WebSocketMaxConnections, log)
	streaming := websocket.NewHandler(exec, hub, websocket.ClientConfig{
		WriteWait:      cfg.WebSocketWriteWait,
		PongWait:       cfg.WebSocketPongWait,
		PingPeriod:     cfg.WebSocketPingPeriod,
		MaxMessageSize: cfg.WebSocketMaxMsgSize,
		SendBufferSize: cfg.WebSocketSendBufSize,
		InitTimeout:    cfg.WebSocketInitTimeout,
	}, log)

	gql := graphhttp.NewHandler(exec, streaming, graphhttp.Config{
		EnablePlayground: cfg.EnablePlayground,
		RequestTimeout:   cfg.RequestTimeout,
	}, log)

	mux := http.NewServeMux()
	mux.Handle(graphhttp.Path, gql)
	mux.Handle("/health", commonhttp.HealthHandler(log, checks))
	mux.Handle("/metrics", promhttp.Handler())

	var limiter *commonhttp.RateLimiter
	if cfg.RateLimitPerSecond > 0 {
		limiter = commonhttp.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst)
	}

	return &GatewayApp{
		Config:      cfg,
		Log:         log,
		Bus:         bus,
		Executor:    exec,
		Hub:         hub,
		RateLimiter: limiter,
		Handler: commonhttp.BuildBaseHandler(log, mux, commonhttp.BaseOptions{
			MaxRequestSize: cfg.MaxRequestSize,
			RateLimiter:    limiter,
		}),
	}
}

// Run serves the gateway until a termination signal arrives.
func (a *GatewayApp) Run() error {
	httpServer := server.NewServer(server.DefaultServerConfig(a.Config.HTTPPort), a.Handler)
	return server.Run(httpServer, a.Log, "gateway", a.ShutdownHooks())
}

// ShutdownHooks closes streaming clients first so their bus subscriptions
// are released before the pool goes away.
func (a *GatewayApp) ShutdownHooks() []server.ShutdownHook {
	return []server.ShutdownHook{
		a.Hub.Shutdown,
		func(context.Context) error {
			if a.RateLimiter != nil {
				a.RateLimiter.Stop()
			}
			return nil
		},
	}
}

func (a *GatewayApp) Close() {
	if a.stopMetrics != nil {
		a.stopMetrics()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	a.Log.Info("gateway resources released")
	_ = a.Log.Close()
}
