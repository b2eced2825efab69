// Package runner launches the external test task for a job and reports how it
// ended. Runners never go through a shell: the task call is passed as a single
// argv element.
package runner

import (
	"bytes"
	"context"
	"sync"
)

// Runner executes an invocation and blocks until it ends.
//
// Run returns a *errors.LaunchError when the task could not be started, a
// *errors.RunFailedError when it exited unsuccessfully and the context error
// when ctx ended first.
type Runner interface {
	Run(ctx context.Context, jobID string, inv Invocation) error
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	if n >= t.max {
		t.buf.Reset()
		t.buf.Write(p[n-t.max:])
		return n, nil
	}
	if over := t.buf.Len() + n - t.max; over > 0 {
		t.buf.Next(over)
	}
	t.buf.Write(p)
	return n, nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
