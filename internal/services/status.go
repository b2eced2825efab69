package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/testcentral/outpost/internal/models"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
	"github.com/testcentral/outpost/pkg/inventory"
	"github.com/testcentral/outpost/pkg/jobs"
)

var emptyRuns = json.RawMessage("[]")

type controls struct {
	Parameters json.RawMessage `json:"parameters"`
}

// StatusService assembles the status report of a silo. Nothing is cached:
// inventory, results and controls are read from disk on every call.
type StatusService struct {
	lookup      *inventory.Lookup
	state       *RunStateMachine
	name        string
	defaultSilo string
}

func NewStatusService(lookup *inventory.Lookup, state *RunStateMachine, name, defaultSilo string) *StatusService {
	return &StatusService{
		lookup:      lookup,
		state:       state,
		name:        name,
		defaultSilo: defaultSilo,
	}
}

func (s *StatusService) GetStatus(ctx context.Context, silo string) (*models.OutpostStatus, error) {
	if silo == "" {
		silo = s.defaultSilo
	}
	if !jobs.IsPathSegment(silo) {
		return nil, srvErrors.NewValidationError("silo", fmt.Sprintf("%q is not a valid silo name", silo))
	}

	suites, err := s.lookup.ListSuites(silo)
	if err != nil {
		return nil, fmt.Errorf("listing test suites: %w", err)
	}

	snap := s.state.Snapshot()

	runs, err := s.readResults(silo, snap)
	if err != nil {
		return nil, err
	}

	params, err := s.readParameters(silo)
	if err != nil {
		return nil, err
	}

	return &models.OutpostStatus{
		Name:           s.name,
		Status:         snap.Status,
		AvailableTests: suites,
		TestRuns:       runs,
		Parameters:     params,
		LastError:      snap.LastError,
	}, nil
}

// readResults returns the artifact of the latest run or [] when there is none
// yet. A run in progress may be halfway through writing it, so an unparsable
// file only fails the call once the run is over.
func (s *StatusService) readResults(silo string, snap models.RunSnapshot) (json.RawMessage, error) {
	if snap.ResultArtifact == models.NoResultArtifact {
		return emptyRuns, nil
	}

	path := filepath.Join(s.lookup.SiloPath(silo), inventory.ResultsDir, snap.ResultArtifact)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return emptyRuns, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}

	if !json.Valid(data) {
		if snap.Status == models.RunStatusRunning {
			return emptyRuns, nil
		}
		return nil, fmt.Errorf("results %s are not valid JSON", snap.ResultArtifact)
	}
	return json.RawMessage(data), nil
}

// readParameters returns the parameters field of controls.json, nil when the
// file does not exist.
func (s *StatusService) readParameters(silo string) (json.RawMessage, error) {
	path := filepath.Join(s.lookup.SiloPath(silo), inventory.ControlFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", inventory.ControlFile, err)
	}

	var c controls
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", inventory.ControlFile, err)
	}
	return c.Parameters, nil
}
