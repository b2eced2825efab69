package services_test

import (
	"errors"
	"sync"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/testcentral/outpost/internal/models"
	"github.com/testcentral/outpost/internal/services"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
)

var _ = Describe("RunStateMachine", func() {
	var sm *services.RunStateMachine

	BeforeEach(func() {
		sm = services.NewRunStateMachine()
	})

	It("should start Ready without a result artifact", func() {
		snap := sm.Snapshot()

		Expect(snap.Status).To(Equal(models.RunStatusReady))
		Expect(snap.ResultArtifact).To(Equal(models.NoResultArtifact))
		Expect(snap.LastError).To(BeNil())
	})

	It("should move to Running on acquire", func() {
		Expect(sm.TryAcquire()).To(BeTrue())
		Expect(sm.Status()).To(Equal(models.RunStatusRunning))
	})

	It("should reject a second acquire while Running", func() {
		Expect(sm.TryAcquire()).To(BeTrue())

		Expect(sm.TryAcquire()).To(BeFalse())
		Expect(sm.Status()).To(Equal(models.RunStatusRunning))
	})

	It("should return to Ready after a successful run", func() {
		Expect(sm.TryAcquire()).To(BeTrue())

		Expect(sm.Release(models.RunOutcomeSuccess, nil)).To(Succeed())

		Expect(sm.Status()).To(Equal(models.RunStatusReady))
	})

	// Given a run that fails
	// When the run is released
	// Then the outpost should report Error and still accept the next run
	It("should move to Error after a failed run and accept a new one", func() {
		// Arrange
		Expect(sm.TryAcquire()).To(BeTrue())

		// Act
		sm.Release(models.RunOutcomeFailure, errors.New("exit code 1"))

		// Assert
		snap := sm.Snapshot()
		Expect(snap.Status).To(Equal(models.RunStatusError))
		Expect(snap.LastError).To(MatchError("exit code 1"))
		Expect(sm.TryAcquire()).To(BeTrue())
	})

	It("should clear the last error after a successful run", func() {
		Expect(sm.TryAcquire()).To(BeTrue())
		sm.Release(models.RunOutcomeFailure, errors.New("boom"))
		Expect(sm.TryAcquire()).To(BeTrue())

		sm.Release(models.RunOutcomeSuccess, nil)

		Expect(sm.Snapshot().LastError).To(BeNil())
	})

	DescribeTable("should reject release when not running",
		func(setup func(), want models.RunStatus) {
			setup()

			err := sm.Release(models.RunOutcomeFailure, errors.New("late"))

			Expect(srvErrors.IsInvalidStateError(err)).To(BeTrue())
			Expect(err).To(MatchError(ContainSubstring(string(want))))
			Expect(sm.Status()).To(Equal(want))
		},
		Entry("from Ready", func() {}, models.RunStatusReady),
		Entry("from Error", func() {
			sm.TryAcquire()
			sm.Release(models.RunOutcomeFailure, errors.New("first"))
		}, models.RunStatusError),
	)

	It("should not replace the artifact when released while not running", func() {
		sm.SetResultArtifact("181018_093015123.json")

		err := sm.ReleaseWithArtifact(models.RunOutcomeSuccess, nil, models.NoResultArtifact)

		Expect(srvErrors.IsInvalidStateError(err)).To(BeTrue())
		Expect(sm.Snapshot().ResultArtifact).To(Equal("181018_093015123.json"))
	})

	It("should keep the artifact with the state", func() {
		sm.SetResultArtifact("181018_093015123.json")

		Expect(sm.Snapshot().ResultArtifact).To(Equal("181018_093015123.json"))
	})

	// Given many concurrent callers
	// When they all try to acquire at once
	// Then exactly one of them should win
	It("should let exactly one concurrent acquire win", func() {
		for range 50 {
			// Arrange
			sm = services.NewRunStateMachine()
			var (
				wg    sync.WaitGroup
				wins  atomic.Int32
				start = make(chan struct{})
			)

			// Act
			for range 32 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					if sm.TryAcquire() {
						wins.Add(1)
					}
				}()
			}
			close(start)
			wg.Wait()

			// Assert
			Expect(wins.Load()).To(Equal(int32(1)))
		}
	})
})
