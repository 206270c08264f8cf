package batch

import (
	"testing"

	"github.com/bmizerany/assert"
)

func TestErrorAggregator_CapsItemizedErrors(t *testing.T) {
	aggregator := &errorAggregator[int]{}
	for chunk := 0; chunk < 150; chunk++ {
		aggregator.fold([]ItemError[int]{{Index: chunk, Item: chunk, Message: "duplicate entry"}})
	}
	assert.Equal(t, MaxItemizedErrors, len(aggregator.errors))
	assert.Equal(t, 50, aggregator.truncated)
	// the first 100 are retained in fold order
	assert.Equal(t, 0, aggregator.errors[0].Index)
	assert.Equal(t, 99, aggregator.errors[99].Index)
}

func TestErrorAggregator_KeepsChunkFoldOrder(t *testing.T) {
	aggregator := &errorAggregator[string]{}
	aggregator.fold([]ItemError[string]{{Index: 10, Item: "k"}, {Index: 11, Item: "l"}})
	aggregator.fold([]ItemError[string]{{Index: 0, Item: "a"}})
	assert.Equal(t, 3, len(aggregator.errors))
	assert.Equal(t, 10, aggregator.errors[0].Index)
	assert.Equal(t, 0, aggregator.errors[2].Index)
}
