package v1

import (
	"bytes"
	"encoding/json"
	"time"
)

// Defines values for OutpostStatusOutpostStatus.
const (
	OutpostStatusOutpostStatusReady   OutpostStatusOutpostStatus = "Ready"
	OutpostStatusOutpostStatusRunning OutpostStatusOutpostStatus = "Running"
	OutpostStatusOutpostStatusError   OutpostStatusOutpostStatus = "Error"
)

// RunID is the Test Central run id. Test Central sends it either as a
// string or as a number.
type RunID string

func (r *RunID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RunID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = RunID(n.String())
	return nil
}

// ExecuteRequest defines model for ExecuteRequest.
type ExecuteRequest struct {
	RunId       RunID           `json:"run_id"`
	Silo        string          `json:"silo,omitempty"`
	Testsuite   string          `json:"testsuite"`
	Testcases   string          `json:"testcases"`
	Config      json.RawMessage `json:"config,omitempty"`
	EmailList   string          `json:"email_list,omitempty"`
	Browser     string          `json:"browser,omitempty"`
	Locale      string          `json:"locale,omitempty"`
	Environment string          `json:"environment,omitempty"`
	ReleaseDay  string          `json:"release_day,omitempty"`
}

// ExecuteResponse defines model for ExecuteResponse.
type ExecuteResponse struct {
	Status  bool    `json:"status"`
	Message *string `json:"message,omitempty"`
}

// AvailableTest defines model for AvailableTest.
type AvailableTest struct {
	Testsuite string `json:"testsuite"`
	Testcases string `json:"testcases"`
}

// OutpostStatusOutpostStatus defines model for OutpostStatus.OutpostStatus.
type OutpostStatusOutpostStatus string

// OutpostStatus defines model for OutpostStatus.
type OutpostStatus struct {
	AvailableTest []AvailableTest            `json:"available_test"`
	OutpostStatus OutpostStatusOutpostStatus `json:"outpost_status"`
	TestRuns      json.RawMessage            `json:"test_runs"`
	Name          string                     `json:"name"`
	Parameters    json.RawMessage            `json:"parameters"`
	LastError     *string                    `json:"last_error,omitempty"`
}

// StatusResponse defines model for StatusResponse.
type StatusResponse struct {
	Data OutpostStatus `json:"data"`
}

// StatusError defines model for StatusError.
type StatusError struct {
	Status        bool   `json:"status"`
	OutpostStatus string `json:"outpost_status"`
	Message       string `json:"message"`
}

// Run defines model for Run.
type Run struct {
	Id             string     `json:"id"`
	RunId          string     `json:"run_id"`
	Silo           string     `json:"silo"`
	Testsuite      string     `json:"testsuite"`
	Testcases      []string   `json:"testcases"`
	ResultArtifact string     `json:"result_artifact"`
	Status         string     `json:"status"`
	Error          *string    `json:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// RunList defines model for RunList.
type RunList struct {
	Runs  []Run `json:"runs"`
	Total int   `json:"total"`
}

// Health defines model for Health.
type Health struct {
	Status string `json:"status"`
}

// GetStatusParams defines parameters for GetStatus.
type GetStatusParams struct {
	Silo *string `form:"silo,omitempty" json:"silo,omitempty"`
}

// ListRunsParams defines parameters for ListRuns and ExportRuns.
type ListRunsParams struct {
	Silo   *string `form:"silo,omitempty" json:"silo,omitempty"`
	Limit  *int    `form:"limit,omitempty" json:"limit,omitempty"`
	Filter *string `form:"filter,omitempty" json:"filter,omitempty"`
}
