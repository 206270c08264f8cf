package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/panjf2000/ants/v2"
)

// scheduler bounds the number of chunks executing at once. A counting
// semaphore gates admission: a slot is taken before a chunk is submitted
// to the pool and released exactly once when the chunk completes, so
// admission blocks while the limit is reached. Admission follows chunk
// index order; completion order is unconstrained. Results are folded by
// a single collector goroutine, which keeps shared counters race free.
type scheduler[T any] struct {
	pool  *ants.Pool
	slots chan struct{}
}

func newScheduler[T any](concurrency int) (*scheduler[T], BatchError) {
	pool, err := ants.NewPool(concurrency)
	if err != nil {
		return nil, NewBatchError(ErrCodeConfig, "create chunk pool failed, concurrency:%v", concurrency, err)
	}
	return &scheduler[T]{
		pool:  pool,
		slots: make(chan struct{}, concurrency),
	}, nil
}

// run admit chunks in index order until all are admitted or ctx is
// cancelled, fold every result of an admitted chunk, and return the
// number of admitted chunks. Cancellation never revokes an admitted
// chunk. A non-nil error means a job-level fault, not a chunk failure.
func (s *scheduler[T]) run(ctx context.Context, chunks []Chunk[T],
	execute func(Chunk[T]) ChunkResult[T], fold func(ChunkResult[T])) (admitted int, err BatchError) {

	results := make(chan ChunkResult[T], len(chunks))
	collected := make(chan struct{})
	var foldErr BatchError
	go func() {
		defer close(collected)
		defer func() {
			if er := recover(); er != nil {
				logger.Error(ctx, "panic on aggregation path, err:%v, stack:%v", er, string(debug.Stack()))
				foldErr = NewBatchError(ErrCodeGeneral, "panic on aggregation path: %v", fmt.Sprint(er))
			}
		}()
		for result := range results {
			fold(result)
		}
	}()

	var wg sync.WaitGroup
	for _, chunk := range chunks {
		if ctx.Err() != nil {
			logger.Info(ctx, "cancellation observed, stop admitting chunks, next chunk:%v", chunk.Index)
			break
		}
		select {
		case s.slots <- struct{}{}:
		case <-ctx.Done():
			logger.Info(ctx, "cancellation observed while waiting for a slot, next chunk:%v", chunk.Index)
		}
		if ctx.Err() != nil {
			break
		}
		chunk := chunk
		wg.Add(1)
		if e := s.pool.Submit(func() {
			defer wg.Done()
			defer func() { <-s.slots }()
			results <- execute(chunk)
		}); e != nil {
			wg.Done()
			<-s.slots
			err = NewBatchError(ErrCodeConcurrency, "submit chunk failed, chunk:%v", chunk.Index, e)
			break
		}
		admitted++
	}
	wg.Wait()
	close(results)
	<-collected
	if err == nil {
		err = foldErr
	}
	return admitted, err
}

func (s *scheduler[T]) release() {
	s.pool.Release()
}
