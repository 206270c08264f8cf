package batch

import (
	"context"
	"sync"
	"testing"

	"github.com/bmizerany/assert"
)

type fakeStore struct {
	mu         sync.Mutex
	chunkSizes []int
	existing   map[int]bool
	deleted    []int64
}

func (s *fakeStore) recordChunk(n int) {
	s.mu.Lock()
	s.chunkSizes = append(s.chunkSizes, n)
	s.mu.Unlock()
}

func (s *fakeStore) InsertChunk(_ context.Context, items []int) ([]int, error) {
	s.recordChunk(len(items))
	created := make([]int, 0, len(items))
	s.mu.Lock()
	for _, item := range items {
		if !s.existing[item] {
			s.existing[item] = true
			created = append(created, item)
		}
	}
	s.mu.Unlock()
	return created, nil
}

func (s *fakeStore) UpdateChunk(_ context.Context, items []int) ([]int, error) {
	s.recordChunk(len(items))
	return items, nil
}

type fakeDeleter struct {
	fakeStore
}

func (d *fakeDeleter) DeleteChunk(_ context.Context, keys []int64) ([]int64, error) {
	d.recordChunk(len(keys))
	d.mu.Lock()
	d.deleted = append(d.deleted, keys...)
	d.mu.Unlock()
	return keys, nil
}

func TestBulkInsert_SkipsDuplicates(t *testing.T) {
	store := &fakeStore{existing: map[int]bool{3: true, 7: true}}
	items := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	result, err := BulkInsert(context.Background(), items, store, Options[int]{ChunkSize: 4, Concurrency: 1})

	assert.Equal(t, nil, err)
	assert.Equal(t, 8, result.Succeeded)
	assert.Equal(t, 2, result.Failed)
	assert.T(t, !result.Success)
	assert.Equal(t, []int{4, 4, 2}, store.chunkSizes)
}

func TestBulkInsert_DefaultChunkSize(t *testing.T) {
	store := &fakeStore{existing: map[int]bool{}}
	items := make([]int, 1200)
	for i := range items {
		items[i] = i
	}
	result, err := BulkInsert(context.Background(), items, store, Options[int]{Concurrency: 1})

	assert.Equal(t, nil, err)
	assert.T(t, result.Success)
	assert.Equal(t, []int{500, 500, 200}, store.chunkSizes)
}

func TestBulkUpdate_DefaultChunkSize(t *testing.T) {
	store := &fakeStore{}
	items := make([]int, 250)
	result, err := BulkUpdate(context.Background(), items, store, Options[int]{Concurrency: 1})

	assert.Equal(t, nil, err)
	assert.Equal(t, 250, result.Succeeded)
	assert.Equal(t, []int{100, 100, 50}, store.chunkSizes)
}

func TestBulkDelete_ByIdentity(t *testing.T) {
	deleter := &fakeDeleter{}
	keys := make([]int64, 2500)
	for i := range keys {
		keys[i] = int64(i)
	}
	result, err := BulkDelete(context.Background(), keys, deleter, Options[int64]{Concurrency: 1})

	assert.Equal(t, nil, err)
	assert.Equal(t, 2500, result.Succeeded)
	assert.Equal(t, []int{1000, 1000, 500}, deleter.chunkSizes)
	assert.Equal(t, 2500, len(deleter.deleted))
}

type rangeValidator struct {
	max int
}

func (v *rangeValidator) ValidateItem(item int) []string {
	var problems []string
	if item < 0 {
		problems = append(problems, "must not be negative")
	}
	if item > v.max {
		problems = append(problems, "exceeds maximum")
	}
	return problems
}

func TestBulkValidate_ReportsIssuesInItemOrder(t *testing.T) {
	items := []int{5, -1, 3, 99, 7, -2}
	result, issues, err := BulkValidate(context.Background(), items, &rangeValidator{max: 50},
		Options[int]{ChunkSize: 2, Concurrency: 3})

	assert.Equal(t, nil, err)
	assert.Equal(t, 3, result.Succeeded)
	assert.Equal(t, 3, result.Failed)
	assert.T(t, !result.Success)

	assert.Equal(t, 3, len(issues))
	assert.Equal(t, 1, issues[0].Index)
	assert.Equal(t, -1, issues[0].Item)
	assert.Equal(t, []string{"must not be negative"}, issues[0].Problems)
	assert.Equal(t, 3, issues[1].Index)
	assert.Equal(t, 99, issues[1].Item)
	assert.Equal(t, 5, issues[2].Index)
}

func TestBulkValidate_AllValid(t *testing.T) {
	items := []int{1, 2, 3}
	result, issues, err := BulkValidate(context.Background(), items, &rangeValidator{max: 50}, Options[int]{})

	assert.Equal(t, nil, err)
	assert.T(t, result.Success)
	assert.Equal(t, 0, len(issues))
}
