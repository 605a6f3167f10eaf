package interaction

// FrameCoalescer keeps only the most recent value offered between two frames.
// Flush hands that value to apply exactly once.
type FrameCoalescer[T any] struct {
	pending T
	has     bool
	dropped int
}

// Offer replaces any value still waiting for the next frame.
func (f *FrameCoalescer[T]) Offer(v T) {
	if f.has {
		f.dropped++
	}
	f.pending = v
	f.has = true
}

// Pending reports whether a value is waiting.
func (f *FrameCoalescer[T]) Pending() bool {
	return f.has
}

// Flush applies the waiting value, if any, and reports whether it did.
func (f *FrameCoalescer[T]) Flush(apply func(T)) bool {
	if !f.has {
		return false
	}
	v := f.pending
	f.Cancel()
	apply(v)
	return true
}

// Cancel discards the waiting value.
func (f *FrameCoalescer[T]) Cancel() {
	var zero T
	f.pending = zero
	f.has = false
}

// Dropped counts values superseded before they were applied.
func (f *FrameCoalescer[T]) Dropped() int {
	return f.dropped
}
