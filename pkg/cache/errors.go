package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBackend is returned when a remote cache cannot be reached.
	ErrBackend = errors.New("cache backend unavailable")

	// ErrCorrupt is returned when a stored entry cannot be decoded. Callers
	// recompute and overwrite the entry.
	ErrCorrupt = errors.New("corrupt cache entry")
)

// DecodeJSON unmarshals a cached entry into v. Decoding failures wrap
// [ErrCorrupt].
func DecodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return nil
}

// TransientError marks a failure that may succeed when tried again, such
// as a dropped connection to Redis.
type TransientError struct{ Err error }

// Transient marks err as transient. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err was marked with [Transient].
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Retry policy for remote backends.
var (
	retryAttempts = 3
	retryDelay    = 200 * time.Millisecond
)

// Retry calls fn until it succeeds, fails with an error not marked
// [Transient], or runs out of attempts. The wait doubles after every
// failed attempt.
func Retry(ctx context.Context, fn func() error) error {
	delay := retryDelay
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !IsTransient(err) || attempt == retryAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
}
