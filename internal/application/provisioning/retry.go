package provisioning

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
)

// RetryConfig bounds the retry behavior for device operations
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns the default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Multiplier:  2.0,
	}
}

// RetryExecutor runs device operations with bounded retries and exponential
// backoff. It must only be invoked from a dispatcher worker, never while a
// database transaction is open: the backoff sleep and the operation itself
// are the engine's only suspension points.
type RetryExecutor struct {
	config RetryConfig
	logger *zap.Logger

	// sleep is injectable for tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryExecutor creates a new retry executor
func NewRetryExecutor(config RetryConfig, logger *zap.Logger) *RetryExecutor {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultRetryConfig().MaxAttempts
	}
	if config.BaseDelay <= 0 {
		config.BaseDelay = DefaultRetryConfig().BaseDelay
	}
	if config.Multiplier <= 0 {
		config.Multiplier = DefaultRetryConfig().Multiplier
	}
	return &RetryExecutor{
		config: config,
		logger: logger,
		sleep:  sleepContext,
	}
}

// Run invokes the operation until it succeeds or the attempt limit is
// reached. The delay before attempt n+1 is BaseDelay * Multiplier^(n-1).
// Exhaustion returns the last error; the operation is not rescheduled.
func (e *RetryExecutor) Run(ctx context.Context, name string, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= e.config.MaxAttempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			if attempt > 1 {
				e.logger.Info("operation succeeded after retry",
					zap.String("operation", name),
					zap.Int("attempt", attempt),
				)
			}
			return nil
		}

		if attempt == e.config.MaxAttempts {
			break
		}

		delay := e.backoff(attempt)
		e.logger.Warn("operation failed, retrying",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(lastErr),
		)

		if err := e.sleep(ctx, delay); err != nil {
			return err
		}
	}

	e.logger.Error("operation failed permanently",
		zap.String("operation", name),
		zap.Int("attempts", e.config.MaxAttempts),
		zap.Error(lastErr),
	)
	return lastErr
}

// backoff computes the delay after the given failed attempt (1-based)
func (e *RetryExecutor) backoff(attempt int) time.Duration {
	factor := math.Pow(e.config.Multiplier, float64(attempt-1))
	return time.Duration(float64(e.config.BaseDelay) * factor)
}

// sleepContext sleeps for the duration or until the context is canceled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
