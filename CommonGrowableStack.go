package kbox2d

// growableStack is a LIFO used by tree traversals. The backing slice is
// kept between uses so steady state traversals do not allocate.
type growableStack[T any] struct {
	items []T
}

func (s *growableStack[T]) Count() int {
	return len(s.items)
}

func (s *growableStack[T]) Push(value T) {
	s.items = append(s.items, value)
}

// Pop removes the top element. The second result is false on an empty stack.
func (s *growableStack[T]) Pop() (T, bool) {
	var zero T
	n := len(s.items)
	if n == 0 {
		return zero, false
	}
	value := s.items[n-1]
	s.items = s.items[:n-1]
	return value, true
}

func (s *growableStack[T]) Reset() {
	s.items = s.items[:0]
}
