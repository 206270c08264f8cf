package batch

// MaxItemizedErrors cap on the error entries retained in the final
// Result. Failures beyond the cap are still counted in the totals;
// callers needing full detail must capture them via OnChunkComplete.
const MaxItemizedErrors = 100

// errorAggregator collects per-item failure records in the order their
// owning chunks complete aggregation. fold must be called from the
// serialized aggregation path.
type errorAggregator[T any] struct {
	errors    []ItemError[T]
	truncated int
}

func (a *errorAggregator[T]) fold(errs []ItemError[T]) {
	for _, e := range errs {
		if len(a.errors) >= MaxItemizedErrors {
			a.truncated++
			continue
		}
		a.errors = append(a.errors, e)
	}
}
