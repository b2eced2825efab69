package v1

import (
	"encoding/json"

	"github.com/testcentral/outpost/internal/models"
)

func (r ExecuteRequest) ToModel() models.ExecutionRequest {
	return models.ExecutionRequest{
		RunID:      string(r.RunId),
		EmailList:  r.EmailList,
		Silo:       r.Silo,
		TestSuite:  r.Testsuite,
		TestCases:  r.Testcases,
		Config:     []byte(r.Config),
		Browser:    r.Browser,
		Locale:     r.Locale,
		Env:        r.Environment,
		ReleaseDay: r.ReleaseDay,
	}
}

func NewOutpostStatus(status models.OutpostStatus) OutpostStatus {
	s := OutpostStatus{
		AvailableTest: make([]AvailableTest, 0, len(status.AvailableTests)),
		Name:          status.Name,
		TestRuns:      status.TestRuns,
		Parameters:    status.Parameters,
	}

	switch status.Status {
	case models.RunStatusRunning:
		s.OutpostStatus = OutpostStatusOutpostStatusRunning
	case models.RunStatusError:
		s.OutpostStatus = OutpostStatusOutpostStatusError
	default:
		s.OutpostStatus = OutpostStatusOutpostStatusReady
	}

	for _, e := range status.AvailableTests {
		s.AvailableTest = append(s.AvailableTest, AvailableTest{Testsuite: e.TestSuite, Testcases: e.TestCases})
	}

	if len(s.TestRuns) == 0 {
		s.TestRuns = json.RawMessage("[]")
	}

	if status.LastError != nil {
		e := status.LastError.Error()
		s.LastError = &e
	}

	return s
}

// NewStatusError is the body returned when the status of a silo cannot be assembled.
func NewStatusError(err error) StatusError {
	return StatusError{
		Status:        false,
		OutpostStatus: string(models.RunStatusError),
		Message:       err.Error(),
	}
}

func NewRun(r models.RunRecord) Run {
	run := Run{
		Id:             r.ID,
		RunId:          r.RunID,
		Silo:           r.Silo,
		Testsuite:      r.TestSuite,
		Testcases:      r.TestCases,
		ResultArtifact: r.ResultArtifact,
		Status:         string(r.Status),
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
	if run.Testcases == nil {
		run.Testcases = []string{}
	}
	if r.Error != "" {
		e := r.Error
		run.Error = &e
	}
	return run
}

func NewRunList(records []models.RunRecord) RunList {
	l := RunList{Runs: make([]Run, 0, len(records)), Total: len(records)}
	for _, r := range records {
		l.Runs = append(l.Runs, NewRun(r))
	}
	return l
}
