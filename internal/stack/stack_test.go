package stack_test

import (
	"testing"

	"github.com/lestrrat-go/xenon/internal/stack"
	"github.com/stretchr/testify/assert"
)

func TestStack(t *testing.T) {
	s := stack.New[string](4)
	s.Push("xml")
	s.Push("ds")

	if !assert.Equal(t, 2, s.Len(), "Len == 2") {
		return
	}

	v, ok := s.Peek()
	if !assert.True(t, ok, "Peek succeeds") {
		return
	}
	if !assert.Equal(t, "ds", v, `Peek returns "ds"`) {
		return
	}

	v, ok = s.Pop()
	if !assert.True(t, ok, "Pop succeeds") {
		return
	}
	if !assert.Equal(t, "ds", v, `Pop returns "ds"`) {
		return
	}
	if !assert.Equal(t, 1, s.Len(), "Len == 1") {
		return
	}

	if top := s.Top(); assert.NotNil(t, top, "Top is not nil") {
		*top = "svg"
	}
	v, _ = s.Pop()
	if !assert.Equal(t, "svg", v, "mutation through Top is visible") {
		return
	}

	_, ok = s.Pop()
	if !assert.False(t, ok, "Pop on empty stack fails") {
		return
	}
}

func TestStackShrink(t *testing.T) {
	s := stack.New[int](0)
	for i := 0; i < 100; i++ {
		s.Push(i)
	}
	for i := 0; i < 95; i++ {
		s.Pop()
	}

	if !assert.Equal(t, 5, s.Len(), "Len == 5") {
		return
	}
	if !assert.True(t, s.Cap() <= 20 || s.Cap() <= s.Len()*2, "capacity shrinks after draining") {
		return
	}
}
