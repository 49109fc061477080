// Package retry absorbs transient "database is locked" contention on the
// store file. It is deliberately not a circuit breaker: fixed attempt
// budget, fixed delay, no jitter, and the last error is returned unchanged
// on exhaustion.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"

	apperrors "reportcard-backend/pkg/errors"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 500 * time.Millisecond
)

type Retryer struct {
	Attempts int
	Delay    time.Duration
}

func New(attempts int, delay time.Duration) *Retryer {
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Retryer{Attempts: attempts, Delay: delay}
}

// Do runs fn, retrying while it reports lock contention. Non-transient
// errors pass straight through on the first attempt.
func (r *Retryer) Do(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt < r.Attempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !IsLocked(err) {
			return err
		}
		if attempt == r.Attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.Delay):
		}
	}
	return err
}

// IsLocked reports whether err is SQLite lock contention, either the raw
// driver error or one already wrapped as transient.
func IsLocked(err error) bool {
	if err == nil {
		return false
	}
	if apperrors.IsTransient(err) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}
