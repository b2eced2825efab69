package services

import (
	"sync"

	"github.com/testcentral/outpost/internal/models"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
)

// RunStateMachine tracks whether the outpost is running tests. It is the only
// shared mutable state of the outpost: the status and the result artifact of
// the latest run are always read and written together under mu.
type RunStateMachine struct {
	mu       sync.Mutex
	status   models.RunStatus
	artifact string
	lastErr  error
}

func NewRunStateMachine() *RunStateMachine {
	return &RunStateMachine{
		status:   models.RunStatusReady,
		artifact: models.NoResultArtifact,
	}
}

// TryAcquire moves Ready or Error to Running. It returns false, leaving the
// state untouched, when a run is already in progress.
func (s *RunStateMachine) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == models.RunStatusRunning {
		return false
	}

	s.status = models.RunStatusRunning
	return true
}

// Release ends the current run. Success moves to Ready, failure to Error and
// records err. Calling Release while not Running leaves the state untouched
// and returns an InvalidStateError.
func (s *RunStateMachine) Release(outcome models.RunOutcome, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.release(outcome, err)
}

// ReleaseWithArtifact replaces the artifact reference and releases in one
// step.
func (s *RunStateMachine) ReleaseWithArtifact(outcome models.RunOutcome, err error, artifact string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == models.RunStatusRunning {
		s.artifact = artifact
	}
	return s.release(outcome, err)
}

// release must be called with mu held.
func (s *RunStateMachine) release(outcome models.RunOutcome, err error) error {
	if s.status != models.RunStatusRunning {
		return srvErrors.NewInvalidStateError(string(s.status))
	}

	switch outcome {
	case models.RunOutcomeSuccess:
		s.status = models.RunStatusReady
		s.lastErr = nil
	default:
		s.status = models.RunStatusError
		s.lastErr = err
	}
	return nil
}

func (s *RunStateMachine) Status() models.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetResultArtifact replaces the artifact reference. Use models.NoResultArtifact
// to clear it.
func (s *RunStateMachine) SetResultArtifact(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifact = name
}

func (s *RunStateMachine) Snapshot() models.RunSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return models.RunSnapshot{
		Status:         s.status,
		ResultArtifact: s.artifact,
		LastError:      s.lastErr,
	}
}
