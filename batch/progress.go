package batch

import (
	"context"
	"math"
	"runtime/debug"
	"time"
)

// Progress point-in-time snapshot of a running job, re-derived after
// every chunk settles and handed to the OnProgress callback by value.
type Progress struct {
	TotalItems int
	Processed  int
	Succeeded  int
	Failed     int
	//Percentage completed chunks over total chunks, rounded
	Percentage int
	//CurrentChunk number of chunks folded in so far
	CurrentChunk int
	TotalChunks  int
	//EstimatedRemaining (totalChunks - processedChunks) * mean chunk duration
	EstimatedRemaining time.Duration
}

// progressTracker derives running totals and an ETA from completed
// chunks. fold must be called from the serialized aggregation path.
type progressTracker struct {
	totalItems      int
	totalChunks     int
	processedChunks int
	succeeded       int
	failed          int
	totalDuration   time.Duration
	onProgress      func(Progress)
}

func newProgressTracker(totalItems, totalChunks int, onProgress func(Progress)) *progressTracker {
	return &progressTracker{
		totalItems:  totalItems,
		totalChunks: totalChunks,
		onProgress:  onProgress,
	}
}

func (t *progressTracker) fold(ctx context.Context, succeeded, failed int, duration time.Duration) Progress {
	t.processedChunks++
	t.succeeded += succeeded
	t.failed += failed
	t.totalDuration += duration
	snapshot := t.snapshot()
	if t.onProgress != nil {
		notifyProgress(ctx, t.onProgress, snapshot)
	}
	return snapshot
}

func (t *progressTracker) snapshot() Progress {
	var mean time.Duration
	if t.processedChunks > 0 {
		mean = t.totalDuration / time.Duration(t.processedChunks)
	}
	percentage := 0
	if t.totalChunks > 0 {
		percentage = int(math.Round(float64(t.processedChunks) / float64(t.totalChunks) * 100))
	}
	return Progress{
		TotalItems:         t.totalItems,
		Processed:          t.succeeded + t.failed,
		Succeeded:          t.succeeded,
		Failed:             t.failed,
		Percentage:         percentage,
		CurrentChunk:       t.processedChunks,
		TotalChunks:        t.totalChunks,
		EstimatedRemaining: time.Duration(t.totalChunks-t.processedChunks) * mean,
	}
}

// notifyProgress callback faults must not abort the batch.
func notifyProgress(ctx context.Context, callback func(Progress), snapshot Progress) {
	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic in progress callback, err:%v, stack:%v", er, string(debug.Stack()))
		}
	}()
	callback(snapshot)
}

// notifyChunk same isolation for the per-chunk completion callback.
func notifyChunk[T any](ctx context.Context, callback func(ChunkResult[T]), result ChunkResult[T]) {
	defer func() {
		if er := recover(); er != nil {
			logger.Error(ctx, "panic in chunk complete callback, chunk:%v, err:%v, stack:%v", result.Index, er, string(debug.Stack()))
		}
	}()
	callback(result)
}
