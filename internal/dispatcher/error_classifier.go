package dispatcher

import (
	"context"
	"errors"
	"strings"

	"github.com/local/pagecomposer/internal/ai"
)

// Classify labels an error for metrics and breaker decisions.
func Classify(err error) string {
	switch {
	case err == nil:
		return "success"
	case ai.IsRateLimited(err):
		return "rate_limited"
	case isTimeoutError(err):
		return "timeout"
	case isFatalError(err):
		return "fatal"
	case isTransientError(err):
		return "transient"
	}
	return "unknown"
}

// isTransientError checks if error points at the service rather than the request
func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	if ai.IsRateLimited(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}

	var httpErr *ai.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= 500 && httpErr.StatusCode < 600 {
			return true
		}
		if httpErr.StatusCode == 429 {
			return true
		}
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "eof") {
		return true
	}
	return false
}

// isFatalError checks if the request itself was rejected
func isFatalError(err error) bool {
	if err == nil {
		return false
	}
	var valErr *ai.ValidationError
	if errors.As(err, &valErr) {
		return true
	}
	var httpErr *ai.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.StatusCode != 429 {
			return true
		}
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "invalid request") ||
		strings.Contains(errStr, "validation failed") ||
		strings.Contains(errStr, "bad request") ||
		strings.Contains(errStr, "malformed")
}

func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}
