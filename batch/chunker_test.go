package batch

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestSplitChunks_CoversInputExactlyOnce(t *testing.T) {
	for _, tc := range []struct {
		n, size, chunks int
	}{
		{0, 500, 0},
		{1, 500, 1},
		{499, 500, 1},
		{500, 500, 1},
		{501, 500, 2},
		{2500, 500, 5},
		{7, 3, 3},
		{9, 3, 3},
	} {
		items := make([]int, tc.n)
		for i := range items {
			items[i] = i
		}
		chunks := splitChunks(items, tc.size)
		assert.Equal(t, tc.chunks, len(chunks))

		rebuilt := make([]int, 0, tc.n)
		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.Index)
			assert.Equal(t, len(rebuilt), chunk.Offset)
			rebuilt = append(rebuilt, chunk.Items...)
		}
		assert.Equal(t, items, rebuilt)
	}
}

func TestSplitChunks_LastChunkShorter(t *testing.T) {
	chunks := splitChunks([]string{"a", "b", "c", "d", "e"}, 2)
	assert.Equal(t, 3, len(chunks))
	assert.Equal(t, []string{"a", "b"}, chunks[0].Items)
	assert.Equal(t, []string{"c", "d"}, chunks[1].Items)
	assert.Equal(t, []string{"e"}, chunks[2].Items)
	assert.Equal(t, 4, chunks[2].Offset)
}
