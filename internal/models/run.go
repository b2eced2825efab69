package models

import (
	"fmt"
	"time"
)

// RunStatus is the outpost-wide run state reported to Test Central.
type RunStatus string

const (
	// RunStatusReady - no run in progress, accepting execute requests
	RunStatusReady RunStatus = "Ready"
	// RunStatusRunning - a run is in progress, execute requests are rejected
	RunStatusRunning RunStatus = "Running"
	// RunStatusError - the last run failed; accepts new runs like Ready
	RunStatusError RunStatus = "Error"
)

func ParseRunStatus(s string) (RunStatus, error) {
	switch s {
	case "Ready":
		return RunStatusReady, nil
	case "Running":
		return RunStatusRunning, nil
	case "Error":
		return RunStatusError, nil
	default:
		return "", fmt.Errorf("invalid run status: %s", s)
	}
}

// RunOutcome is how a run ended.
type RunOutcome int

const (
	RunOutcomeSuccess RunOutcome = iota
	RunOutcomeFailure
)

func (o RunOutcome) String() string {
	if o == RunOutcomeSuccess {
		return "success"
	}
	return "failure"
}

// NoResultArtifact marks that no result artifact can be queried.
const NoResultArtifact = ""

// RunSnapshot is a consistent view of the run state machine.
type RunSnapshot struct {
	Status         RunStatus
	ResultArtifact string
	LastError      error
}

// ExecutionRequest is what Test Central sends to start a run.
// Every field is caller supplied.
type ExecutionRequest struct {
	RunID      string
	EmailList  string
	Silo       string
	TestSuite  string
	TestCases  string
	Config     []byte
	Browser    string
	Locale     string
	Env        string
	ReleaseDay string
}

// JobDescription is a fully resolved run. It is built once per accepted request
// and never modified afterwards.
type JobDescription struct {
	ID             string
	RunID          string
	EmailList      string
	Silo           string
	TestSuite      string
	TestCasePaths  []string
	SessionToken   string
	WebDriver      string
	Locale         string
	Env            string
	ReleaseDay     string
	ResultArtifact string
	CreatedAt      time.Time
}

// RunRecord is one row of the run journal.
type RunRecord struct {
	ID             string
	RunID          string
	Silo           string
	TestSuite      string
	TestCases      []string
	ResultArtifact string
	Status         RunStatus
	Error          string
	StartedAt      time.Time
	FinishedAt     *time.Time
}
