package batch

import (
	"context"

	"github.com/hoainhanpro/dafc-refactor/batch/status"
)

// AggregateRefresher recomputes derived sums and counts for the entity
// an import targets. It runs exactly once, after all chunks settle, not
// per chunk.
type AggregateRefresher interface {
	RefreshAggregates(ctx context.Context) error
}

// RunImport chunked insertion of normalized records followed by a single
// aggregate refresh. The refresh is skipped when the insertion phase was
// aborted or hit a job-level fault. A refresh failure marks the result
// failed and is returned with code ErrCodeDbFail; the chunk counts of
// the insertion phase are preserved either way.
func RunImport[T any](ctx context.Context, records []T, store Inserter[T], refresher AggregateRefresher, opts Options[T]) (*Result[T], BatchError) {
	result, err := BulkInsert(ctx, records, store, opts)
	if err != nil {
		return result, err
	}
	if refresher == nil {
		return result, nil
	}
	if e := refresher.RefreshAggregates(ctx); e != nil {
		logger.Error(ctx, "aggregate refresh failed, jobId:%v, err:%v", result.JobID, e)
		result.Status = status.FAILED
		result.Success = false
		return result, NewBatchError(ErrCodeDbFail, "aggregate refresh failed, jobId:%v", result.JobID, e)
	}
	logger.Info(ctx, "aggregate refresh finished, jobId:%v", result.JobID)
	return result, nil
}
