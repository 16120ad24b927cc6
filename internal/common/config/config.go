package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlibekovAA/postgraph/internal/common/constants"
	commonerrors "github.com/AlibekovAA/postgraph/internal/common/errors"
)

var (
	ErrMissingRequiredEnv = commonerrors.ErrMissingRequiredEnv
	ErrInvalidJWTSecret   = commonerrors.ErrInvalidJWTSecret
)

type GatewayConfig struct {
	HTTPPort       string
	DatabaseURL    string
	JWTSecret      string
	BcryptCost     int
	RequestTimeout time.Duration

	MaxRequestSize   int64
	EnablePlayground bool

	SubscriberQueueSize int

	WebSocketWriteWait      time.Duration
	WebSocketPongWait       time.Duration
	WebSocketPingPeriod     time.Duration
	WebSocketMaxMsgSize     int64
	WebSocketSendBufSize    int
	WebSocketInitTimeout    time.Duration
	WebSocketMaxConnections int

	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
	CircuitBreakerReset     time.Duration

	RateLimitPerSecond float64
	RateLimitBurst     int

	LogDir   string
	LogLevel string
}

// LoadEnvFile populates the process environment from a dotenv file.
// Variables already set in the environment win.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func LoadGatewayConfig() (GatewayConfig, error) {
	jwtSecret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return GatewayConfig{}, err
	}

	if err := validateJWTSecret(jwtSecret); err != nil {
		return GatewayConfig{}, err
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return GatewayConfig{}, err
	}

	return GatewayConfig{
		HTTPPort:       getEnv("GATEWAY_HTTP_PORT", constants.DefaultHTTPPort),
		DatabaseURL:    databaseURL,
		JWTSecret:      jwtSecret,
		BcryptCost:     getIntEnv("BCRYPT_COST", constants.BcryptCost),
		RequestTimeout: getDurationEnv("GATEWAY_REQUEST_TIMEOUT", constants.DefaultRequestTimeout),

		MaxRequestSize:   getInt64Env("GATEWAY_MAX_REQUEST_SIZE", constants.DefaultMaxRequestSize),
		EnablePlayground: getBoolEnv("GATEWAY_PLAYGROUND", true),

		SubscriberQueueSize: getIntEnv("PUBSUB_QUEUE_SIZE", constants.DefaultSubscriberQueueSize),

		WebSocketWriteWait:      getDurationEnv("GATEWAY_WS_WRITE_WAIT", constants.DefaultWebSocketWriteWait),
		WebSocketPongWait:       getDurationEnv("GATEWAY_WS_PONG_WAIT", constants.DefaultWebSocketPongWait),
		WebSocketPingPeriod:     getDurationEnv("GATEWAY_WS_PING_PERIOD", constants.DefaultWebSocketPingPeriod),
		WebSocketMaxMsgSize:     getInt64Env("GATEWAY_WS_MAX_MSG_SIZE", constants.DefaultWebSocketMaxMsgSize),
		WebSocketSendBufSize:    getIntEnv("GATEWAY_WS_SEND_BUF_SIZE", constants.DefaultWebSocketSendBufSize),
		WebSocketInitTimeout:    getDurationEnv("GATEWAY_WS_INIT_TIMEOUT", constants.DefaultWebSocketInitTimeout),
		WebSocketMaxConnections: getIntEnv("GATEWAY_WS_MAX_CONNECTIONS", constants.DefaultWebSocketMaxConnections),

		CircuitBreakerThreshold: getIntEnv("DB_CB_THRESHOLD", constants.DefaultCircuitBreakerThreshold),
		CircuitBreakerTimeout:   getDurationEnv("DB_CB_TIMEOUT", constants.DefaultCircuitBreakerTimeout),
		CircuitBreakerReset:     getDurationEnv("DB_CB_RESET", constants.DefaultCircuitBreakerReset),

		RateLimitPerSecond: getFloatEnv("GATEWAY_RATE_LIMIT_RPS", constants.RateLimitRequestsPerSecond),
		RateLimitBurst:     getIntEnv("GATEWAY_RATE_LIMIT_BURST", constants.RateLimitBurst),

		LogDir:   getEnv("LOG_DIR", ""),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return ErrInvalidJWTSecret.WithCause(fmt.Errorf("got %d bytes", len(secret)))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", ErrMissingRequiredEnv.WithCause(fmt.Errorf("%s is not set", key))
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getIntEnv(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64Env(key string, fallback int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func getFloatEnv(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBoolEnv(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}
