package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hoainhanpro/dafc-refactor/batch/status"
)

// Operation the engine's sole collaborator boundary: process one chunk
// and return the items actually processed. Returning an error fails the
// whole chunk. The operation is responsible for its own atomicity, e.g.
// wrapping the chunk in a single transaction; two chunks are never mixed
// into the same invocation.
type Operation[T any] func(ctx context.Context, items []T, chunkIndex int) ([]T, error)

const (
	//DefaultChunkSize items per chunk for inserts and generic jobs
	DefaultChunkSize = 500
	//DefaultUpdateChunkSize each update is typically its own write
	DefaultUpdateChunkSize = 100
	//DefaultDeleteChunkSize identity-only payload is cheap
	DefaultDeleteChunkSize = 1000
	//DefaultValidateChunkSize validation is side-effect free
	DefaultValidateChunkSize = 1000
	//DefaultConcurrency max chunks running at once
	DefaultConcurrency = 3
	//DefaultValidateConcurrency validation is cheap and highly parallel
	DefaultValidateConcurrency = 5
	//DefaultRetries additional attempts after the first
	DefaultRetries = 2
	//DefaultRetryDelay base unit of linear backoff
	DefaultRetryDelay = time.Second
)

// Options configuration of a batch run. The zero value of a field
// selects its default; Retries < 0 disables retries entirely.
// Cancellation travels on the context passed to Process and is checked
// only at chunk admission boundaries.
type Options[T any] struct {
	ChunkSize   int
	Concurrency int
	Retries     int
	RetryDelay  time.Duration
	//OnProgress invoked with a snapshot after each chunk settles
	OnProgress func(Progress)
	//OnChunkComplete invoked with the raw result after each chunk settles
	OnChunkComplete func(ChunkResult[T])
}

func (opts *Options[T]) applyDefaults() {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Retries == 0 {
		opts.Retries = DefaultRetries
	} else if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
}

func (opts *Options[T]) validate() BatchError {
	if opts.ChunkSize < 1 {
		return NewBatchError(ErrCodeConfig, "chunk size must be greater than zero, got:%v", opts.ChunkSize)
	}
	if opts.Concurrency < 1 {
		return NewBatchError(ErrCodeConfig, "concurrency must be greater than zero, got:%v", opts.Concurrency)
	}
	return nil
}

// Result terminal summary of a batch run, a plain value.
type Result[T any] struct {
	JobID  string
	Status status.BatchStatus
	//Success true iff the run completed with zero failures
	Success   bool
	Total     int
	Succeeded int
	Failed    int
	//Errors itemized failures, capped at MaxItemizedErrors
	Errors []ItemError[T]
	//Results processed items in chunk index order, regardless of completion order
	Results  []T
	Duration time.Duration
}

// Process run the items through the operation in bounded-concurrency
// chunks and assemble the final Result.
//
// Individual chunk failures never surface as an error here; they are
// folded into the Result's counts and capped error list. A non-nil
// BatchError means an invalid configuration, an aggregation-path fault,
// or cancellation. On cancellation the returned Result is a partial
// summary: every chunk admitted before the abort is folded in, the
// status is ABORTED, and the error carries code ErrCodeAborted.
func Process[T any](ctx context.Context, items []T, operation Operation[T], opts Options[T]) (*Result[T], BatchError) {
	opts.applyDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if operation == nil {
		return nil, NewBatchError(ErrCodeConfig, "operation must not be nil")
	}

	jobID := uuid.New().String()
	start := time.Now()
	chunks := splitChunks(items, opts.ChunkSize)
	logger.Info(ctx, "start batch run, jobId:%v, items:%v, chunks:%v, chunkSize:%v, concurrency:%v, retries:%v",
		jobID, len(items), len(chunks), opts.ChunkSize, opts.Concurrency, opts.Retries)

	executor := newChunkExecutor(operation, RetryPolicy{MaxRetries: opts.Retries, BaseDelay: opts.RetryDelay})
	tracker := newProgressTracker(len(items), len(chunks), opts.OnProgress)
	aggregator := &errorAggregator[T]{}
	sched, err := newScheduler[T](opts.Concurrency)
	if err != nil {
		return nil, err
	}
	defer sched.release()

	processed := make([][]T, len(chunks))
	admitted, runErr := sched.run(ctx, chunks,
		func(chunk Chunk[T]) ChunkResult[T] {
			return executor.execute(ctx, chunk)
		},
		func(result ChunkResult[T]) {
			processed[result.Index] = result.Processed
			tracker.fold(ctx, result.Succeeded, result.Failed, result.Duration)
			aggregator.fold(result.Errors)
			if opts.OnChunkComplete != nil {
				notifyChunk(ctx, opts.OnChunkComplete, result)
			}
		})

	result := &Result[T]{
		JobID:     jobID,
		Total:     len(items),
		Succeeded: tracker.succeeded,
		Failed:    tracker.failed,
		Errors:    aggregator.errors,
		Duration:  time.Since(start),
	}
	for _, chunkItems := range processed {
		result.Results = append(result.Results, chunkItems...)
	}

	switch {
	case runErr != nil:
		result.Status = status.FAILED
		return result, runErr
	case admitted < len(chunks):
		result.Status = status.ABORTED
		logger.Warn(ctx, "batch run aborted, jobId:%v, admitted:%v of %v chunks, succeeded:%v, failed:%v",
			jobID, admitted, len(chunks), result.Succeeded, result.Failed)
		return result, NewBatchError(ErrCodeAborted, "batch run aborted, jobId:%v, admitted:%v of %v chunks",
			jobID, admitted, len(chunks))
	case result.Failed > 0:
		result.Status = status.FAILED
	default:
		result.Status = status.COMPLETED
		result.Success = true
	}
	logger.Info(ctx, "finish batch run, jobId:%v, status:%v, succeeded:%v, failed:%v, duration:%v",
		jobID, result.Status, result.Succeeded, result.Failed, result.Duration)
	return result, nil
}
