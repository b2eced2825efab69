package scheduler

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/testcentral/outpost/internal/models"
)

type Result[T any] = models.Result[T]

// ErrClosed is the error of work submitted to, or still queued in, a closed
// scheduler.
var ErrClosed = fmt.Errorf("scheduler closed: %w", context.Canceled)

type workRequest struct {
	fn  models.Work[any]
	c   chan models.Result[any]
	ctx context.Context
}

type worker struct {
	done    chan any
	mainCtx context.Context
}

func (w worker) Work(r workRequest) {
	r.c <- w.call(r)

	select {
	case w.done <- struct{}{}:
	case <-w.mainCtx.Done():
	}
}

func (w worker) call(r workRequest) (result models.Result[any]) {
	defer func() {
		if p := recover(); p != nil {
			zap.S().Named("scheduler").Errorw("worker panicked", "panic", p)
			result = models.Result[any]{Err: fmt.Errorf("worker panicked: %v", p)}
		}
	}()

	v, err := r.fn(r.ctx)
	return models.Result[any]{Data: v, Err: err}
}

func newWorker(ctx context.Context, done chan any) worker {
	return worker{done: done, mainCtx: ctx}
}

// Scheduler runs work on a fixed number of workers. Work beyond the number
// of idle workers is queued in submission order.
type Scheduler struct {
	workers    *models.Queue[worker]
	workQueue  *models.Queue[workRequest]
	inFlight   sync.WaitGroup
	closed     chan any
	done       chan any
	work       chan workRequest
	mainCtx    context.Context
	mainCancel context.CancelFunc
	closeOnce  sync.Once
}

func NewScheduler(nbWorkers int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan any)
	wq := &models.Queue[worker]{}
	for range nbWorkers {
		wq.Push(newWorker(ctx, done))
	}

	s := &Scheduler{
		workers:    wq,
		workQueue:  &models.Queue[workRequest]{},
		closed:     make(chan any),
		done:       done,
		work:       make(chan workRequest),
		mainCtx:    ctx,
		mainCancel: cancel,
	}
	go s.run()
	return s
}

// AddWork queues w and returns its future. Once the scheduler is closed the
// returned future resolves immediately with ErrClosed.
func (s *Scheduler) AddWork(w models.Work[any]) *models.Future[models.Result[any]] {
	// buffered so a worker never blocks on a future nobody reads
	c := make(chan models.Result[any], 1)
	ctx, cancel := context.WithCancel(s.mainCtx)

	if s.mainCtx.Err() == nil {
		select {
		case s.work <- workRequest{w, c, ctx}:
			return models.NewFuture(c, cancel)
		case <-s.mainCtx.Done():
		}
	}

	cancel()
	return models.NewResolvedFuture(models.Result[any]{Err: ErrClosed})
}

// Close cancels all work and waits for in-flight work to return.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() {
		s.mainCancel()
		<-s.closed
		s.inFlight.Wait()
	})
}

func (s *Scheduler) run() {
	defer close(s.closed)

	for {
		select {
		case w := <-s.work:
			s.workQueue.Push(w)
			if s.workers.Len() == 0 {
				continue
			}
			s.dispatch(s.workQueue.Pop())
		case <-s.done:
			s.workers.Push(newWorker(s.mainCtx, s.done))

			if s.workQueue.Len() == 0 {
				continue
			}
			s.dispatch(s.workQueue.Pop())
		case <-s.mainCtx.Done():
			for s.workQueue.Len() > 0 {
				r := s.workQueue.Pop()
				r.c <- models.Result[any]{Err: ErrClosed}
			}
			return
		}
	}
}

func (s *Scheduler) dispatch(r workRequest) {
	worker := s.workers.Pop()
	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		worker.Work(r)
	}()
}
