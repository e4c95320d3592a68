// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package batch

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

const (
	// rateLimitPauseFloor is the first pause used after a rate limited call when no
	// inter batch pause is configured.
	rateLimitPauseFloor = time.Second
	// defaultMaxInterBatchPause caps the inter batch pause when no cap is configured.
	defaultMaxInterBatchPause = 10 * time.Second
)

// Config tunes an Executor.
type Config struct {
	// BatchSize is the number of groups submitted between two inter batch pauses.
	// Zero submits all groups of a pass as a single batch.
	BatchSize int
	// RetryCount is the number of retry passes after the first one.
	RetryCount int
	// RetryDelay is the wait before the first retry pass; it doubles on each following pass.
	RetryDelay time.Duration
	// MaxRetryDelay caps the wait before a retry pass.
	MaxRetryDelay time.Duration
	// JitterFraction randomizes retry delays by up to +/- the given fraction, 0 to 1.
	JitterFraction float64
	// InterBatchPause is the wait between two batches of the same pass.
	InterBatchPause time.Duration
	// MaxInterBatchPause caps the inter batch pause grown by rate limited calls.
	// Zero means 10s.
	MaxInterBatchPause time.Duration
	// Concurrency is the number of groups submitted at the same time. Zero means one.
	Concurrency int
	// RequestsPerSecond bounds the remote calls issued by a run. Zero means no bound.
	RequestsPerSecond float64
	// StrictDates rejects DATE values that are not calendar dates.
	StrictDates bool
}

// DefaultConfig returns the configuration used when nothing else is specified.
func DefaultConfig() Config {
	return Config{
		BatchSize:          50,
		RetryCount:         3,
		RetryDelay:         time.Second,
		MaxRetryDelay:      30 * time.Second,
		InterBatchPause:    0,
		MaxInterBatchPause: defaultMaxInterBatchPause,
		Concurrency:        1,
	}
}

// Validate reports every invalid setting of c.
func (c Config) Validate() error {
	var errs []error
	if c.BatchSize < 0 {
		errs = append(errs, errors.New("batch size cannot be negative"))
	}
	if c.RetryCount < 0 {
		errs = append(errs, errors.New("retry count cannot be negative"))
	}
	if c.RetryDelay < 0 || c.MaxRetryDelay < 0 {
		errs = append(errs, errors.New("retry delays cannot be negative"))
	}
	if c.InterBatchPause < 0 || c.MaxInterBatchPause < 0 {
		errs = append(errs, errors.New("inter batch pauses cannot be negative"))
	} else if c.InterBatchPause > c.maxPause() {
		errs = append(errs, fmt.Errorf("inter batch pause %s exceeds the maximum of %s", c.InterBatchPause, c.maxPause()))
	}
	if c.JitterFraction < 0 || c.JitterFraction > 1 {
		errs = append(errs, errors.New("jitter fraction must be between 0 and 1"))
	}
	if c.Concurrency < 0 {
		errs = append(errs, errors.New("concurrency cannot be negative"))
	}
	if c.RequestsPerSecond < 0 || math.IsNaN(c.RequestsPerSecond) {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// retryDelay computes the wait before the given retry pass, starting from pass 1.
func (c Config) retryDelay(pass int) time.Duration {
	base := float64(c.RetryDelay) * math.Pow(2, float64(pass-1))
	if c.MaxRetryDelay > 0 && base > float64(c.MaxRetryDelay) {
		base = float64(c.MaxRetryDelay)
	}
	jitter := base * c.JitterFraction * (rand.Float64()*2 - 1) // +/- jitter
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// nextPause grows the inter batch pause after a rate limited call.
// The result never exceeds the configured maximum.
func (c Config) nextPause(current time.Duration) time.Duration {
	limit := c.maxPause()
	if current >= limit {
		return limit
	}
	return min(max(current*2, rateLimitPauseFloor), limit)
}

func (c Config) maxPause() time.Duration {
	if c.MaxInterBatchPause == 0 {
		return defaultMaxInterBatchPause
	}
	return c.MaxInterBatchPause
}

func (c Config) batchSize(groups int) int {
	if c.BatchSize == 0 || c.BatchSize > groups {
		return max(groups, 1)
	}
	return c.BatchSize
}

func (c Config) concurrency() int {
	return max(c.Concurrency, 1)
}
