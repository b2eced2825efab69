package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/testcentral/outpost/internal/models"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
	"github.com/testcentral/outpost/pkg/jobs"
)

// ExecutionService accepts execution requests.
type ExecutionService struct {
	builder     *jobs.Builder
	state       *RunStateMachine
	dispatcher  *Dispatcher
	defaultSilo string
}

func NewExecutionService(builder *jobs.Builder, state *RunStateMachine, dispatcher *Dispatcher, defaultSilo string) *ExecutionService {
	return &ExecutionService{
		builder:     builder,
		state:       state,
		dispatcher:  dispatcher,
		defaultSilo: defaultSilo,
	}
}

// Execute validates req and starts the run in the background. A request that
// fails validation never changes the run state. While a run is in progress it
// returns a RunInProgressError.
func (e *ExecutionService) Execute(ctx context.Context, req models.ExecutionRequest) (*models.JobDescription, error) {
	silo := req.Silo
	if silo == "" {
		silo = e.defaultSilo
	}

	job, err := e.builder.Build(req, silo)
	if err != nil {
		return nil, err
	}

	if !e.state.TryAcquire() {
		return nil, srvErrors.NewRunInProgressError()
	}

	if err := e.dispatcher.Dispatch(ctx, job); err != nil {
		return nil, err
	}

	zap.S().Named("execution").Infow("run accepted", "job", job.ID, "run_id", job.RunID, "silo", silo, "cases", len(job.TestCasePaths))
	return job, nil
}
