// ABOUTME: This file implements retry logic with exponential backoff for broker HTTP calls.
// ABOUTME: It retries on rate limits (429) and server errors (5xx), never on other client errors.

package retry

import (
	"context"
	"fmt"
	"time"
)

// HTTPError interface for errors that carry an HTTP status code
type HTTPError interface {
	error
	HTTPStatusCode() int
}

// Do executes an operation with exponential backoff retry logic.
// It retries on:
// - 429 (Rate Limit)
// - 5xx (server errors)
// It does NOT retry on:
// - Other 4xx errors (400, 401, 403, 404, ...)
// - Non-HTTP errors
//
// The delay doubles on each attempt, starting at baseDelay. maxRetries counts
// retry attempts only, not the initial call. A cancelled context stops the loop
// between attempts and returns the context error.
func Do(ctx context.Context, operation func() error, maxRetries int, baseDelay time.Duration) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt == maxRetries {
			break
		}

		if !shouldRetry(err) {
			return err
		}

		delay := baseDelay * time.Duration(1<<uint(attempt))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// shouldRetry determines if an error is retryable
func shouldRetry(err error) bool {
	httpErr, ok := err.(HTTPError)
	if !ok {
		return false
	}

	statusCode := httpErr.HTTPStatusCode()

	if statusCode == 429 {
		return true
	}

	if statusCode >= 500 && statusCode < 600 {
		return true
	}

	return false
}

// RetryableError wraps an HTTP status code as an error
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d error", e.StatusCode)
}

func (e *RetryableError) HTTPStatusCode() int {
	return e.StatusCode
}

// NewRetryableError creates a new retryable error with the given status code
func NewRetryableError(statusCode int, message string) *RetryableError {
	return &RetryableError{
		StatusCode: statusCode,
		Message:    message,
	}
}
