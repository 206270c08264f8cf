package batch

import (
	"strings"
	"time"
)

// retryablePatterns transient sink conditions worth another attempt.
// Classification is by message content so it works the same for any
// injected operation, whatever error types it produces.
var retryablePatterns = []string{
	"deadlock",
	"lock wait timeout",
	"lock conflict",
	"timeout",
	"timed out",
	"connection refused",
	"connection reset",
	"connection closed",
	"broken pipe",
	"too many connections",
	"serialization failure",
	"write conflict",
	"try restarting transaction",
}

// IsRetryable report whether the error message indicates a transient
// condition. The same message always yields the same classification.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// RetryPolicy retry budget and backoff for a chunk. A chunk gets
// MaxRetries additional attempts after the first; backoff is linear in
// attempt number with no jitter so behavior stays reproducible.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// ShouldRetry report whether the zero-based attempt may be followed by
// another one. The final attempt is terminal regardless of classification.
func (p RetryPolicy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.MaxRetries {
		return false
	}
	return IsRetryable(err)
}

// DelayFor backoff to wait after the given zero-based attempt failed.
func (p RetryPolicy) DelayFor(attempt int) time.Duration {
	return p.BaseDelay * time.Duration(attempt+1)
}
