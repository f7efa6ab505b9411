package scene

// slot holds at most one unconsumed value.
// A put replaces any pending value; a take consumes it.
// slot is not safe for concurrent use; Store guards it with its mutex.
type slot[T any] struct {
	value   T
	full    bool
	dropped uint64 // puts that overwrote an unconsumed value
}

func (s *slot[T]) put(v T) {
	if s.full {
		s.dropped++
	}
	s.value = v
	s.full = true
}

func (s *slot[T]) take() (T, bool) {
	if !s.full {
		var zero T
		return zero, false
	}
	v := s.value
	var zero T
	s.value = zero
	s.full = false
	return v, true
}
