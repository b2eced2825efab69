package models

import (
	"context"
)

// Future is the pending result of a unit of work handed to the scheduler.
type Future[T any] struct {
	c      chan T
	cancel context.CancelFunc
}

// NewFuture wraps c, which must receive exactly one value.
func NewFuture[T any](c chan T, cancel context.CancelFunc) *Future[T] {
	return &Future[T]{
		c:      c,
		cancel: cancel,
	}
}

// NewResolvedFuture returns a future already holding v.
func NewResolvedFuture[T any](v T) *Future[T] {
	c := make(chan T, 1)
	c <- v
	return &Future[T]{c: c, cancel: func() {}}
}

// C returns the channel receiving the result.
func (f *Future[T]) C() <-chan T {
	return f.c
}

// Stop cancels the context of the work.
func (f *Future[T]) Stop() {
	f.cancel()
}
