package unsplash

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrThrottled indicates the API answered 429 despite local admission;
	// the in-process counter only approximates the per-credential quota.
	ErrThrottled = errors.New("unsplash: upstream throttled")
	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("unsplash: request timed out")
)

// QuotaError is the local admission refusal. ResetIn reports when the oldest
// recorded request ages out of the window.
type QuotaError struct {
	ResetIn time.Duration
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("unsplash: hourly quota exhausted, resets in %s", e.ResetIn.Round(time.Second))
}

// Code identifies the error class for structured logs.
func (e *QuotaError) Code() string { return "quota_exceeded" }

// APIError is any upstream 4xx/5xx response other than 429.
type APIError struct {
	Status int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("unsplash: api error (status %d)", e.Status)
}

// Code identifies the error class for structured logs.
func (e *APIError) Code() string { return fmt.Sprintf("api_%d", e.Status) }
