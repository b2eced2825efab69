package scheduler_test

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/testcentral/outpost/pkg/scheduler"
)

// blockingRun simulates a rake run that lasts until released or cancelled.
type blockingRun struct {
	started  chan struct{}
	release  chan struct{}
	canceled chan struct{}
}

func newBlockingRun() *blockingRun {
	return &blockingRun{
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		canceled: make(chan struct{}, 1),
	}
}

func (b *blockingRun) work(artifact string) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		close(b.started)
		select {
		case <-b.release:
			return artifact, nil
		case <-ctx.Done():
			b.canceled <- struct{}{}
			return nil, ctx.Err()
		}
	}
}

var _ = Describe("Scheduler", func() {
	var s *scheduler.Scheduler

	AfterEach(func() {
		if s != nil {
			s.Close()
		}
	})

	Context("single run", func() {
		// Given an outpost scheduler with its one worker
		// When a run is submitted
		// Then its future should carry the run's result artifact
		It("should resolve the future with the run result", func() {
			// Arrange
			s = scheduler.NewScheduler(1)

			// Act
			future := s.AddWork(func(ctx context.Context) (any, error) {
				return "181018_093015123.json", nil
			})

			// Assert
			var result scheduler.Result[any]
			Eventually(future.C(), 2*time.Second).Should(Receive(&result))
			Expect(result.Err).NotTo(HaveOccurred())
			Expect(result.Data).To(Equal("181018_093015123.json"))
		})

		It("should hand back the run error", func() {
			s = scheduler.NewScheduler(1)
			runErr := errors.New("rake exited with status 1")

			future := s.AddWork(func(ctx context.Context) (any, error) {
				return nil, runErr
			})

			var result scheduler.Result[any]
			Eventually(future.C(), 2*time.Second).Should(Receive(&result))
			Expect(result.Err).To(MatchError(runErr))
		})
	})

	Context("queued runs", func() {
		// Given a run occupying the only worker
		// When two more runs are submitted
		// Then they should wait and execute in submission order
		It("should run queued work after the current run, in order", func() {
			// Arrange
			s = scheduler.NewScheduler(1)
			first := newBlockingRun()
			s.AddWork(first.work("first"))
			Eventually(first.started, time.Second).Should(BeClosed())

			var (
				mu    sync.Mutex
				order []string
			)
			record := func(name string) func(ctx context.Context) (any, error) {
				return func(ctx context.Context) (any, error) {
					mu.Lock()
					defer mu.Unlock()
					order = append(order, name)
					return name, nil
				}
			}

			// Act
			second := s.AddWork(record("second"))
			third := s.AddWork(record("third"))
			Consistently(second.C(), 100*time.Millisecond).ShouldNot(Receive())
			close(first.release)

			// Assert
			Eventually(third.C(), 2*time.Second).Should(Receive())
			mu.Lock()
			defer mu.Unlock()
			Expect(order).To(Equal([]string{"second", "third"}))
		})
	})

	Context("cancellation", func() {
		It("should cancel a run through future.Stop", func() {
			// Arrange
			s = scheduler.NewScheduler(1)
			run := newBlockingRun()
			future := s.AddWork(run.work("stopped"))
			Eventually(run.started, time.Second).Should(BeClosed())

			// Act
			future.Stop()

			// Assert
			Eventually(run.canceled, time.Second).Should(Receive())
		})

		// Given a run in progress
		// When the outpost shuts down the scheduler
		// Then the run should see its context cancelled and Close should wait for it
		It("should cancel the in-flight run on Close and wait for it", func() {
			// Arrange
			s = scheduler.NewScheduler(1)
			run := newBlockingRun()
			future := s.AddWork(run.work("interrupted"))
			Eventually(run.started, time.Second).Should(BeClosed())

			// Act
			s.Close()

			// Assert
			Expect(run.canceled).To(Receive())
			var result scheduler.Result[any]
			Expect(future.C()).To(Receive(&result))
			Expect(errors.Is(result.Err, context.Canceled)).To(BeTrue())
		})

		It("should fail queued runs with ErrClosed on Close", func() {
			s = scheduler.NewScheduler(1)
			run := newBlockingRun()
			s.AddWork(run.work("current"))
			Eventually(run.started, time.Second).Should(BeClosed())
			queued := s.AddWork(func(ctx context.Context) (any, error) {
				return "never", nil
			})

			s.Close()

			var result scheduler.Result[any]
			Eventually(queued.C(), time.Second).Should(Receive(&result))
			Expect(result.Err).To(MatchError(scheduler.ErrClosed))
		})

		It("should resolve work submitted after Close with ErrClosed", func() {
			s = scheduler.NewScheduler(1)
			s.Close()

			future := s.AddWork(func(ctx context.Context) (any, error) {
				return "late", nil
			})

			var result scheduler.Result[any]
			Expect(future.C()).To(Receive(&result))
			Expect(result.Err).To(MatchError(scheduler.ErrClosed))
			Expect(errors.Is(result.Err, context.Canceled)).To(BeTrue())
		})

		It("should allow Close to be called twice", func() {
			s = scheduler.NewScheduler(1)
			s.Close()
			Expect(s.Close).NotTo(Panic())
		})
	})

	Context("panics", func() {
		// Given a run that panics
		// When it executes
		// Then the panic should become the run error and the worker should keep serving
		It("should turn a panic into an error and keep the worker", func() {
			// Arrange
			s = scheduler.NewScheduler(1)

			// Act
			crashed := s.AddWork(func(ctx context.Context) (any, error) {
				panic("runner crashed")
			})
			next := s.AddWork(func(ctx context.Context) (any, error) {
				return "recovered", nil
			})

			// Assert
			var result scheduler.Result[any]
			Eventually(crashed.C(), 2*time.Second).Should(Receive(&result))
			Expect(result.Err).To(MatchError(ContainSubstring("runner crashed")))

			Eventually(next.C(), 2*time.Second).Should(Receive(&result))
			Expect(result.Data).To(Equal("recovered"))
		})
	})

	Context("goroutines", func() {
		It("should not leak goroutines after Close", func() {
			before := runtime.NumGoroutine()

			for range 10 {
				sched := scheduler.NewScheduler(1)
				for range 5 {
					sched.AddWork(func(ctx context.Context) (any, error) {
						<-ctx.Done()
						return nil, ctx.Err()
					})
				}
				sched.Close()
			}

			Eventually(runtime.NumGoroutine, 2*time.Second, 50*time.Millisecond).
				Should(BeNumerically("<=", before+2))
		})
	})
})
