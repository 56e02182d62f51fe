package service

import (
	"github.com/kyodo/backend/internal/observability/metrics"
)

func recordRegistration(result string) {
	metrics.AuthRegistrationsTotal.WithLabelValues(result).Inc()
}

func recordAttempt(status Status) {
	metrics.AuthAttemptsTotal.WithLabelValues(status.String()).Inc()
}
