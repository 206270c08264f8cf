package batch

import (
	"context"
	"sort"
	"sync"
)

// The bulk entry points below wrap Process with a fixed default chunk
// size and a specific operation. Each persistence concern is a small
// interface the caller implements per entity, so dispatch is resolved
// at compile time instead of by model-name lookup.

// Inserter persists a chunk of new records, skipping duplicates, and
// returns the subset actually created.
type Inserter[T any] interface {
	InsertChunk(ctx context.Context, items []T) ([]T, error)
}

// Updater updates each record of a chunk by identity and returns the
// records actually written.
type Updater[T any] interface {
	UpdateChunk(ctx context.Context, items []T) ([]T, error)
}

// Deleter removes records by identity and returns the identities
// actually removed.
type Deleter[K any] interface {
	DeleteChunk(ctx context.Context, keys []K) ([]K, error)
}

// Validator side-effect-free per-item check. An empty or nil return
// means the item is valid.
type Validator[T any] interface {
	ValidateItem(item T) []string
}

// ValidationIssue one invalid item with its problems and global index.
type ValidationIssue[T any] struct {
	Index    int
	Item     T
	Problems []string
}

// BulkInsert insert items in chunks of 500 by default.
func BulkInsert[T any](ctx context.Context, items []T, store Inserter[T], opts Options[T]) (*Result[T], BatchError) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return Process(ctx, items, func(ctx context.Context, chunk []T, _ int) ([]T, error) {
		return store.InsertChunk(ctx, chunk)
	}, opts)
}

// BulkUpdate update items in chunks of 100 by default, smaller than
// inserts because each item is typically its own write.
func BulkUpdate[T any](ctx context.Context, items []T, store Updater[T], opts Options[T]) (*Result[T], BatchError) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultUpdateChunkSize
	}
	return Process(ctx, items, func(ctx context.Context, chunk []T, _ int) ([]T, error) {
		return store.UpdateChunk(ctx, chunk)
	}, opts)
}

// BulkDelete delete by identity in chunks of 1000 by default.
func BulkDelete[K any](ctx context.Context, keys []K, store Deleter[K], opts Options[K]) (*Result[K], BatchError) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultDeleteChunkSize
	}
	return Process(ctx, keys, func(ctx context.Context, chunk []K, _ int) ([]K, error) {
		return store.DeleteChunk(ctx, chunk)
	}, opts)
}

// BulkValidate run the validator over every item in chunks of 1000 with
// concurrency 5 by default. Valid items count as succeeded; invalid
// items count as failed and come back as ValidationIssues sorted by
// global item index, so callers observe a deterministic order even
// though chunks complete concurrently.
func BulkValidate[T any](ctx context.Context, items []T, validator Validator[T], opts Options[T]) (*Result[T], []ValidationIssue[T], BatchError) {
	if opts.ChunkSize == 0 {
		opts.ChunkSize = DefaultValidateChunkSize
	}
	if opts.Concurrency == 0 {
		opts.Concurrency = DefaultValidateConcurrency
	}
	var mu sync.Mutex
	var issues []ValidationIssue[T]
	chunkSize := opts.ChunkSize
	result, err := Process(ctx, items, func(_ context.Context, chunk []T, chunkIndex int) ([]T, error) {
		valid := make([]T, 0, len(chunk))
		for i, item := range chunk {
			problems := validator.ValidateItem(item)
			if len(problems) == 0 {
				valid = append(valid, item)
				continue
			}
			mu.Lock()
			issues = append(issues, ValidationIssue[T]{
				Index:    chunkIndex*chunkSize + i,
				Item:     item,
				Problems: problems,
			})
			mu.Unlock()
		}
		return valid, nil
	}, opts)
	sort.Slice(issues, func(i, j int) bool { return issues[i].Index < issues[j].Index })
	return result, issues, err
}
