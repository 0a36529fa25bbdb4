package store

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// RetryConfig configures how write transactions are retried when the
// database is locked by another connection.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64 // 0.0 to 1.0
}

// DefaultRetryConfig returns the retry policy used by New.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     2 * time.Second,
		JitterFraction: 0.25,
	}
}

// SetRetryConfig replaces the retry policy. A nil config disables retries.
func (s *Store) SetRetryConfig(cfg *RetryConfig) {
	if cfg == nil {
		cfg = &RetryConfig{}
	}
	s.retry = cfg
}

// isBusy reports whether err is a SQLite busy or locked error.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}

func (c *RetryConfig) backoff(attempt int) time.Duration {
	base := float64(c.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(c.MaxBackoff) {
		base = float64(c.MaxBackoff)
	}
	jitter := base * c.JitterFraction * (rand.Float64()*2 - 1)
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// withRetry runs fn until it succeeds, fails with a non-busy error, or
// the retry budget is spent. The last error is returned unchanged.
func (c *RetryConfig) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		lastErr = fn()
		if !isBusy(lastErr) {
			return lastErr
		}
		if attempt < c.MaxRetries {
			if err := sleep(ctx, c.backoff(attempt)); err != nil {
				return lastErr
			}
		}
	}
	return lastErr
}
