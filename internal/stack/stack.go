package stack

// Stack is a LIFO of T backed by a slice. The zero value is ready to use.
type Stack[T any] struct {
	items []T
}

func New[T any](hint int) *Stack[T] {
	return &Stack[T]{items: make([]T, 0, hint)}
}

func (s *Stack[T]) Push(v T) {
	s.items = append(s.items, v)
}

// Pop removes and returns the top item. The second return value is
// false when the stack is empty.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	l := len(s.items)
	if l == 0 {
		return zero, false
	}

	v := s.items[l-1]
	s.items[l-1] = zero
	s.items = s.items[:l-1]

	if c := cap(s.items); c > 20 && c > len(s.items)*2 {
		s.items = append(make([]T, 0, len(s.items)), s.items...)
	}
	return v, true
}

// Peek returns the top item without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	if l := len(s.items); l > 0 {
		return s.items[l-1], true
	}
	var zero T
	return zero, false
}

// Top returns a pointer to the top item so callers can mutate it in
// place. It returns nil when the stack is empty.
func (s *Stack[T]) Top() *T {
	if l := len(s.items); l > 0 {
		return &s.items[l-1]
	}
	return nil
}

func (s *Stack[T]) Len() int {
	return len(s.items)
}

func (s *Stack[T]) Cap() int {
	return cap(s.items)
}
