package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/kyodo/backend/internal/common/clock"
	"github.com/kyodo/backend/internal/common/constants"
	commonerrors "github.com/kyodo/backend/internal/common/errors"
	"github.com/kyodo/backend/internal/common/logger"
	"github.com/kyodo/backend/internal/observability/metrics"
)

// CircuitBreaker stops calling a failing dependency once Threshold
// consecutive failures have been seen, and lets calls through again after
// ResetAfter has passed since the last one.
type CircuitBreaker struct {
	failures    atomic.Int32
	lastFailure atomic.Value
	threshold   int32
	timeout     time.Duration
	resetAfter  time.Duration
	name        string
	clock       clock.Clock
	ignore      func(error) bool
	log         *logger.Logger
}

type CircuitBreakerConfig struct {
	Name       string
	Threshold  int32
	Timeout    time.Duration
	ResetAfter time.Duration
	Clock      clock.Clock
	// Ignore reports errors that are answers rather than failures, such as
	// a missing row. Caller cancellation is always ignored.
	Ignore func(error) bool
	Logger *logger.Logger
}

func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Threshold <= 0 {
		config.Threshold = constants.CircuitBreakerThreshold
	}
	if config.Timeout <= 0 {
		config.Timeout = constants.CircuitBreakerTimeout
	}
	if config.ResetAfter <= 0 {
		config.ResetAfter = constants.CircuitBreakerResetAfter
	}
	if config.Clock == nil {
		config.Clock = clock.NewRealClock()
	}

	cb := &CircuitBreaker{
		threshold:  config.Threshold,
		timeout:    config.Timeout,
		resetAfter: config.ResetAfter,
		name:       config.Name,
		clock:      config.Clock,
		ignore:     config.Ignore,
		log:        config.Logger,
	}
	cb.lastFailure.Store(time.Time{})
	return cb
}

func (cb *CircuitBreaker) IsOpen() bool {
	if cb.failures.Load() < cb.threshold {
		cb.setState(0)
		return false
	}

	lastFailure := cb.lastFailure.Load().(time.Time)
	if lastFailure.IsZero() {
		cb.setState(0)
		return false
	}

	if cb.clock.Since(lastFailure) > cb.resetAfter {
		cb.reset()
		cb.setState(0)
		return false
	}

	cb.setState(1)
	return true
}

func (cb *CircuitBreaker) setState(state float64) {
	if cb.name != "" {
		metrics.CircuitBreakerState.WithLabelValues(cb.name).Set(state)
	}
}

func (cb *CircuitBreaker) recordFailure(err error) {
	cb.failures.Add(1)
	cb.lastFailure.Store(cb.clock.Now())
	if cb.name != "" {
		metrics.CircuitBreakerFailures.WithLabelValues(cb.name).Inc()
	}
	if cb.log != nil {
		cb.log.Warnf("circuit breaker [%s]: failure recorded: %v", cb.name, err)
	}
}

func (cb *CircuitBreaker) reset() {
	cb.failures.Store(0)
	cb.lastFailure.Store(time.Time{})
}

func (cb *CircuitBreaker) counts(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return cb.ignore == nil || !cb.ignore(err)
}

// Call runs fn under the breaker's timeout, or returns
// commonerrors.ErrCircuitOpen without running it while the breaker is open.
func (cb *CircuitBreaker) Call(ctx context.Context, fn func(context.Context) error) error {
	if cb.IsOpen() {
		if cb.name != "" {
			metrics.CircuitBreakerRejections.WithLabelValues(cb.name).Inc()
		}
		if cb.log != nil {
			cb.log.Warnf("circuit breaker [%s]: circuit is open, rejecting request", cb.name)
		}
		return commonerrors.ErrCircuitOpen
	}

	callCtx, cancel := context.WithTimeout(ctx, cb.timeout)
	defer cancel()

	err := fn(callCtx)
	if err != nil {
		if cb.counts(err) {
			cb.recordFailure(err)
		}
		return err
	}

	cb.reset()
	return nil
}
