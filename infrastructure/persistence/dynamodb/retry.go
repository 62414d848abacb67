package dynamodb

import (
	"context"
	stderrors "errors"
	"math"
	"math/rand"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/frankkinuthian/lms-v3/pkg/errors"
)

// RetryConfig defines retry behavior for transient store failures.
type RetryConfig struct {
	MaxAttempts   int           // Maximum number of attempts, including the first
	BaseDelay     time.Duration // Base delay between retries
	MaxDelay      time.Duration // Maximum delay between retries
	BackoffFactor float64       // Exponential backoff multiplier
	JitterFactor  float64       // Jitter factor to prevent thundering herd
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   3,
		BaseDelay:     100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterFactor:  0.1,
	}
}

// isRetryable reports whether a store error is transient. Constraint and
// conflict failures are deterministic and must never be retried.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var (
		conditionFailed *types.ConditionalCheckFailedException
		cancelled       *types.TransactionCanceledException
		throughput      *types.ProvisionedThroughputExceededException
		requestLimit    *types.RequestLimitExceeded
		internal        *types.InternalServerError
		limit           *types.LimitExceededException
		collectionSize  *types.ItemCollectionSizeLimitExceededException
		inProgress      *types.TransactionInProgressException
	)

	switch {
	case stderrors.As(err, &conditionFailed):
		return false
	case stderrors.As(err, &cancelled):
		return cancelledOnlyByThrottling(cancelled)
	case stderrors.As(err, &throughput),
		stderrors.As(err, &requestLimit),
		stderrors.As(err, &internal),
		stderrors.As(err, &limit),
		stderrors.As(err, &collectionSize),
		stderrors.As(err, &inProgress):
		return true
	}

	var awsErr interface{ ErrorCode() string }
	if stderrors.As(err, &awsErr) {
		switch awsErr.ErrorCode() {
		case "ServiceUnavailable", "ThrottlingException", "Throttling", "RequestTimeout", "RequestLimitExceeded":
			return true
		}
	}

	return false
}

// cancelledOnlyByThrottling reports whether every cancellation reason of a
// failed transaction is a capacity problem. Those transactions left no state
// behind and are safe to resubmit; anything involving a condition or conflict
// is deterministic and must reach the caller instead.
func cancelledOnlyByThrottling(e *types.TransactionCanceledException) bool {
	throttled := false
	for _, reason := range e.CancellationReasons {
		if reason.Code == nil {
			continue
		}
		switch *reason.Code {
		case "None":
		case "ProvisionedThroughputExceeded", "ThrottlingError":
			throttled = true
		default:
			return false
		}
	}
	return throttled
}

// withRetry executes a store operation with exponential backoff, surfacing
// StoreUnavailable once the attempt budget is exhausted. Non-retryable
// errors pass through untouched for the caller to classify.
func (c RetryConfig) withRetry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < c.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryable(err) {
			return err
		}

		if attempt == c.MaxAttempts-1 {
			break
		}

		timer := time.NewTimer(c.calculateDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return errors.NewStoreUnavailableError(operation, lastErr)
}

// calculateDelay calculates the delay for the given attempt number
func (c RetryConfig) calculateDelay(attempt int) time.Duration {
	backoff := float64(c.BaseDelay) * math.Pow(c.BackoffFactor, float64(attempt))

	// Jitter spreads concurrent retries apart
	jitter := backoff * c.JitterFactor * (rand.Float64() - 0.5) * 2
	delay := time.Duration(backoff + jitter)

	if delay > c.MaxDelay {
		delay = c.MaxDelay
	}

	return delay
}
