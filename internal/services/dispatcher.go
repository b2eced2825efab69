package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"
	"go.uber.org/zap"

	"github.com/testcentral/outpost/internal/config"
	"github.com/testcentral/outpost/internal/models"
	"github.com/testcentral/outpost/pkg/inventory"
	"github.com/testcentral/outpost/pkg/runner"
	"github.com/testcentral/outpost/pkg/scheduler"
)

const archiveTimeout = time.Minute

// RunJournal records accepted runs.
type RunJournal interface {
	Start(ctx context.Context, r models.RunRecord) error
	Finish(ctx context.Context, id string, status models.RunStatus, artifact string, runErr error, at time.Time) error
}

// ResultArchiver copies a result artifact somewhere durable.
type ResultArchiver interface {
	Upload(ctx context.Context, silo, artifact, filePath string) error
}

// Dispatcher hands accepted jobs to the scheduler and drives the state
// machine back out of Running once the test task ends.
type Dispatcher struct {
	state     *RunStateMachine
	scheduler *scheduler.Scheduler
	runner    runner.Runner
	journal   RunJournal
	archiver  ResultArchiver
	clock     clock.Clock

	workDir    string
	bin        string
	task       string
	timeout    time.Duration
	keepFailed bool

	pending sync.WaitGroup
	logger  *zap.SugaredLogger
}

func NewDispatcher(cfg config.Configuration, state *RunStateMachine, s *scheduler.Scheduler, r runner.Runner, journal RunJournal, clk clock.Clock) *Dispatcher {
	return &Dispatcher{
		state:      state,
		scheduler:  s,
		runner:     r,
		journal:    journal,
		clock:      clk,
		workDir:    cfg.Outpost.WorkDir,
		bin:        cfg.Runner.RakeBin,
		task:       cfg.Runner.Task,
		timeout:    cfg.Runner.Timeout,
		keepFailed: cfg.Outpost.KeepFailedResult,
		logger:     zap.S().Named("dispatcher"),
	}
}

// WithArchiver uploads the result artifact of every successful run.
func (d *Dispatcher) WithArchiver(a ResultArchiver) *Dispatcher {
	d.archiver = a
	return d
}

// Dispatch starts job in the background and returns without waiting for it.
// The caller must have won RunStateMachine.TryAcquire. When Dispatch returns
// an error the state machine has already been released with a failure.
func (d *Dispatcher) Dispatch(ctx context.Context, job *models.JobDescription) error {
	inv, err := runner.NewInvocation(d.bin, d.task, job)
	if err != nil {
		if rerr := d.state.ReleaseWithArtifact(models.RunOutcomeFailure, err, models.NoResultArtifact); rerr != nil {
			d.logger.Warnw("failed to release run", "job", job.ID, "error", rerr)
		}
		return err
	}

	d.state.SetResultArtifact(job.ResultArtifact)

	if err := d.journal.Start(ctx, models.RunRecord{
		ID:             job.ID,
		RunID:          job.RunID,
		Silo:           job.Silo,
		TestSuite:      job.TestSuite,
		TestCases:      job.TestCasePaths,
		ResultArtifact: job.ResultArtifact,
		StartedAt:      d.clock.Now(),
	}); err != nil {
		d.logger.Warnw("failed to journal run", "job", job.ID, "error", err)
	}

	d.logger.Infow("dispatching run", "job", job.ID, "run_id", job.RunID, "command", inv.Redacted())

	future := d.scheduler.AddWork(func(ctx context.Context) (any, error) {
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		return nil, d.runner.Run(ctx, job.ID, inv)
	})

	// a closed scheduler resolves the future right away
	select {
	case res := <-future.C():
		if errors.Is(res.Err, scheduler.ErrClosed) {
			d.complete(job, res.Err)
			return fmt.Errorf("submitting run: %w", res.Err)
		}
		d.pending.Add(1)
		go func() {
			defer d.pending.Done()
			d.complete(job, res.Err)
		}()
	default:
		d.pending.Add(1)
		go func() {
			defer d.pending.Done()
			res := <-future.C()
			d.complete(job, res.Err)
		}()
	}

	return nil
}

// Wait blocks until every dispatched run has been released.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

func (d *Dispatcher) complete(job *models.JobDescription, runErr error) {
	outcome := models.RunOutcomeSuccess
	status := models.RunStatusReady
	artifact := job.ResultArtifact

	if runErr != nil {
		outcome = models.RunOutcomeFailure
		status = models.RunStatusError
		if !d.keepFailed {
			artifact = models.NoResultArtifact
		}
		d.logger.Errorw("run failed", "job", job.ID, "run_id", job.RunID, "error", runErr)
	} else {
		d.logger.Infow("run finished", "job", job.ID, "run_id", job.RunID, "artifact", artifact)
	}

	if err := d.journal.Finish(context.Background(), job.ID, status, artifact, runErr, d.clock.Now()); err != nil {
		d.logger.Warnw("failed to journal run result", "job", job.ID, "error", err)
	}

	if err := d.state.ReleaseWithArtifact(outcome, runErr, artifact); err != nil {
		d.logger.Warnw("failed to release run", "job", job.ID, "outcome", outcome.String(), "error", err)
	}

	if runErr == nil && d.archiver != nil {
		d.archive(job)
	}
}

func (d *Dispatcher) archive(job *models.JobDescription) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	path := filepath.Join(d.workDir, job.Silo, inventory.ResultsDir, job.ResultArtifact)
	if err := d.archiver.Upload(ctx, job.Silo, job.ResultArtifact, path); err != nil {
		d.logger.Warnw("failed to archive result", "job", job.ID, "path", path, "error", err)
	}
}
