package batch

// Chunk a contiguous, order-preserving slice of the job's items.
// It is created once at job start and never mutated afterwards.
type Chunk[T any] struct {
	//Index zero-based position of the chunk within the job
	Index int
	//Offset global index of the chunk's first item
	Offset int
	//Items the chunk's share of the input, in original order
	Items []T
}

// splitChunks split items into ceil(len(items)/size) chunks covering the
// input exactly once in original order. The last chunk may be shorter.
// The façade rejects size < 1 before this runs.
func splitChunks[T any](items []T, size int) []Chunk[T] {
	count := (len(items) + size - 1) / size
	chunks := make([]Chunk[T], 0, count)
	for start, i := 0, 0; start < len(items); start, i = start+size, i+1 {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, Chunk[T]{Index: i, Offset: start, Items: items[start:end]})
	}
	return chunks
}
