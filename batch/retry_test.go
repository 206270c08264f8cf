package batch

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
)

func TestIsRetryable_Classification(t *testing.T) {
	retryable := []string{
		"Error 1213: Deadlock found when trying to get lock",
		"Lock wait timeout exceeded; try restarting transaction",
		"dial tcp 10.0.0.1:3306: connection refused",
		"read tcp: connection reset by peer",
		"Error 1040: Too many connections",
		"pq: serialization failure",
		"write conflict on plan_line",
		"context deadline exceeded: timed out",
	}
	for _, msg := range retryable {
		assert.T(t, IsRetryable(errors.New(msg)), msg)
	}

	terminal := []string{
		"Error 1062: Duplicate entry '42' for key 'PRIMARY'",
		"invalid plan line: qty must not be negative",
		"column count doesn't match value count",
	}
	for _, msg := range terminal {
		assert.T(t, !IsRetryable(errors.New(msg)), msg)
	}
	assert.T(t, !IsRetryable(nil))
}

func TestIsRetryable_SameMessageSameClassification(t *testing.T) {
	msg := "deadlock detected"
	first := IsRetryable(errors.New(msg))
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, IsRetryable(errors.New(msg)))
	}
}

func TestRetryPolicy_DelayIsLinear(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 3, BaseDelay: 100 * time.Millisecond}
	assert.Equal(t, 100*time.Millisecond, policy.DelayFor(0))
	assert.Equal(t, 200*time.Millisecond, policy.DelayFor(1))
	assert.Equal(t, 300*time.Millisecond, policy.DelayFor(2))
}

func TestRetryPolicy_BudgetExhaustsOnFinalAttempt(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}
	transient := errors.New("deadlock")
	assert.T(t, policy.ShouldRetry(transient, 0))
	assert.T(t, policy.ShouldRetry(transient, 1))
	// attempt 2 is the final one of retries+1 total attempts
	assert.T(t, !policy.ShouldRetry(transient, 2))
}

func TestRetryPolicy_TerminalErrorNeverRetries(t *testing.T) {
	policy := RetryPolicy{MaxRetries: 5, BaseDelay: time.Millisecond}
	assert.T(t, !policy.ShouldRetry(errors.New("duplicate entry"), 0))
}
