// Package retry provides a fixed-delay retry loop for actuatorprobe operations
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/actuatorprobe/actuatorprobe/pkg/errors"
)

const (
	// DefaultRetries is the number of attempts after the initial one.
	DefaultRetries = 2
	// DefaultDelay is the fixed wait between two attempts.
	DefaultDelay = 2000 * time.Millisecond
)

// Config defines retry behavior configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (including initial attempt)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// Delay is the fixed wait between consecutive attempts
	Delay time.Duration `yaml:"delay" json:"delay"`

	// OnRetry is called before each wait, with the attempt that just failed
	OnRetry func(attempt int, err error, delay time.Duration) `yaml:"-" json:"-"`
}

// DefaultConfig returns the retry configuration used for actuator queries
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 1 + DefaultRetries,
		Delay:       DefaultDelay,
	}
}

// Retryer handles retry logic with a fixed delay
type Retryer struct {
	config Config
}

// New creates a new Retryer with the given configuration
func New(config Config) *Retryer {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1 + DefaultRetries
	}
	if config.Delay < 0 {
		config.Delay = 0
	}

	return &Retryer{config: config}
}

// MaxAttempts returns the configured attempt limit
func (r *Retryer) MaxAttempts() int {
	return r.config.MaxAttempts
}

// DoWithContext executes fn until it succeeds, fails with a non-retryable
// error, or the attempts are used up. The wait between attempts is aborted
// when ctx is done; the returned error then carries OPERATION_CANCELED.
func (r *Retryer) DoWithContext(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if !errors.IsRetryable(err) {
			return err
		}

		if attempt == r.config.MaxAttempts {
			break
		}

		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, r.config.Delay)
		}

		if err := sleep(ctx, r.config.Delay); err != nil {
			return errors.NewError(errors.ErrCodeOperationCanceled,
				fmt.Sprintf("interrupted while waiting after attempt %d", attempt)).
				WithCause(lastErr).
				WithDetail("interruption", err.Error())
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", r.config.MaxAttempts, lastErr)
}

// WithOnRetry returns a new Retryer with a retry callback
func (r *Retryer) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Retryer {
	newConfig := r.config
	newConfig.OnRetry = callback
	return New(newConfig)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
