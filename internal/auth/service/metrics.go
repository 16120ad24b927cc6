package service

import (
	"github.com/AlibekovAA/postgraph/internal/observability/metrics"
)

func incrementAccessTokensIssued() {
	metrics.AccessTokensIssued.Inc()
}

func incrementJWTValidations() {
	metrics.JWTValidationsTotal.Inc()
}

func incrementJWTValidationsFailed() {
	metrics.JWTValidationsFailed.Inc()
}

func recordAuthAttempt(action, outcome string) {
	metrics.AuthAttemptsTotal.WithLabelValues(action, outcome).Inc()
}
