package constants

import "time"

const (
	NameMaxLength     = 100
	EmailMaxLength    = 254
	PasswordMaxLength = 72
	TitleMaxLength    = 255
	ContentMaxLength  = 10000

	JWTSecretMinLength = 32
	BcryptCost         = 12

	DefaultPostsSkip    = 0
	DefaultPostsTake    = 10
	DefaultPostsOrderBy = "id"
	MaxPostsTake        = 100

	DefaultMaxRequestSize = 1 << 20
	MaxQueryLength        = 64 * 1024

	TopicPostCreated = "post created"

	DefaultSubscriberQueueSize = 64

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultHTTPPort       = "4000"
	DefaultRequestTimeout = 10 * time.Second

	DefaultCircuitBreakerThreshold = 50
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultWebSocketWriteWait      = 10 * time.Second
	DefaultWebSocketPongWait       = 60 * time.Second
	DefaultWebSocketPingPeriod     = 54 * time.Second
	DefaultWebSocketMaxMsgSize     = 64 * 1024
	DefaultWebSocketSendBufSize    = 256
	DefaultWebSocketInitTimeout    = 10 * time.Second
	DefaultWebSocketMaxConnections = 10000

	WebSocketReadBufferSize  = 1024
	WebSocketWriteBufferSize = 1024

	RateLimitRequestsPerSecond = 20
	RateLimitBurst             = 40
	RateLimitCleanupInterval   = 5 * time.Minute

	LogDefaultDir    = "/var/log/postgraph"
	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
