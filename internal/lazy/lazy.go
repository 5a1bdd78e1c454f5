// Package lazy implements a compute-once cell.
//
// A Cell starts empty and runs its thunk on the first call to Get. A
// successful result is cached and the thunk is released; a failed attempt
// keeps the thunk so a later Get can retry. Get is safe for concurrent use,
// but a thunk must not call Get on its own cell. Initialized never blocks,
// even while a thunk is running.
package lazy

import (
	"sync"
	"sync/atomic"
)

type Cell[T any] struct {
	mu    sync.Mutex
	thunk func() (T, error)
	value T
	done  atomic.Bool
}

func New[T any](thunk func() (T, error)) *Cell[T] {
	return &Cell[T]{thunk: thunk}
}

func Of[T any](value T) *Cell[T] {
	c := &Cell[T]{value: value}
	c.done.Store(true)
	return c
}

func (c *Cell[T]) Get() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done.Load() {
		return c.value, nil
	}

	value, err := c.thunk()
	if err != nil {
		var zero T
		return zero, err
	}

	c.value = value
	c.thunk = nil
	c.done.Store(true)
	return value, nil
}

func (c *Cell[T]) Initialized() bool {
	return c.done.Load()
}
