package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// ItemError failure record for a single item, carrying the message and
// retryable classification of the chunk's final attempt.
type ItemError[T any] struct {
	//Index global item index within the job
	Index int
	//Item the offending item
	Item T
	//Message error message of the final attempt
	Message string
	//Retryable classification of the final attempt
	Retryable bool
}

// ChunkResult outcome of one chunk, produced exactly once after the chunk
// succeeded or exhausted its retries, and never mutated afterwards.
type ChunkResult[T any] struct {
	Index     int
	Succeeded int
	Failed    int
	Errors    []ItemError[T]
	//Processed items the operation reported as successfully processed
	Processed []T
	//Duration wall clock from first attempt to final resolution, backoff waits included
	Duration time.Duration
}

// chunkExecutor runs one chunk through the injected operation under a
// retry policy. Retry is all-or-nothing at chunk granularity: the
// operation is expected to be chunk-atomic.
type chunkExecutor[T any] struct {
	operation Operation[T]
	policy    RetryPolicy
	sleep     func(time.Duration)
}

func newChunkExecutor[T any](operation Operation[T], policy RetryPolicy) *chunkExecutor[T] {
	return &chunkExecutor[T]{
		operation: operation,
		policy:    policy,
		sleep:     time.Sleep,
	}
}

func (e *chunkExecutor[T]) execute(ctx context.Context, chunk Chunk[T]) ChunkResult[T] {
	start := time.Now()
	var finalErr error
	for attempt := 0; ; attempt++ {
		processed, err := e.runAttempt(ctx, chunk)
		if err == nil {
			failed := len(chunk.Items) - len(processed)
			if failed < 0 {
				failed = 0
			}
			return ChunkResult[T]{
				Index:     chunk.Index,
				Succeeded: len(processed),
				Failed:    failed,
				Processed: processed,
				Duration:  time.Since(start),
			}
		}
		if !e.policy.ShouldRetry(err, attempt) {
			logger.Error(ctx, "chunk failed, chunk:%v, attempts:%v, err:%v", chunk.Index, attempt+1, err)
			finalErr = err
			break
		}
		logger.Warn(ctx, "chunk attempt failed and will retry, chunk:%v, attempt:%v, err:%v", chunk.Index, attempt, err)
		e.sleep(e.policy.DelayFor(attempt))
	}
	itemErrors := make([]ItemError[T], 0, len(chunk.Items))
	retryable := IsRetryable(finalErr)
	for i, item := range chunk.Items {
		itemErrors = append(itemErrors, ItemError[T]{
			Index:     chunk.Offset + i,
			Item:      item,
			Message:   finalErr.Error(),
			Retryable: retryable,
		})
	}
	return ChunkResult[T]{
		Index:    chunk.Index,
		Failed:   len(chunk.Items),
		Errors:   itemErrors,
		Duration: time.Since(start),
	}
}

// runAttempt invoke the operation once, converting a panic into a terminal error.
func (e *chunkExecutor[T]) runAttempt(ctx context.Context, chunk Chunk[T]) (processed []T, err error) {
	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic in chunk operation, chunk:%v, err:%v, stack:%v", chunk.Index, er, string(debug.Stack()))
			err = fmt.Errorf("panic in chunk operation: %v", er)
		}
	}()
	return e.operation(ctx, chunk.Items, chunk.Index)
}
