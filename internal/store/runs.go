package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/testcentral/outpost/internal/models"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
)

const (
	runsTable = "runs"

	runColID         = "id"
	runColRunID      = "run_id"
	runColSilo       = "silo"
	runColSuite      = "test_suite"
	runColCases      = "test_cases"
	runColArtifact   = "result_artifact"
	runColStatus     = "status"
	runColError      = "error"
	runColStartedAt  = "started_at"
	runColFinishedAt = "finished_at"
)

var runColumns = []string{
	runColID,
	runColRunID,
	runColSilo,
	runColSuite,
	runColCases,
	runColArtifact,
	runColStatus,
	runColError,
	runColStartedAt,
	runColFinishedAt,
}

// RunStore is the journal of runs accepted since the outpost started.
type RunStore struct {
	db QueryInterceptor
}

func NewRunStore(db QueryInterceptor) *RunStore {
	return &RunStore{db: db}
}

// Start records a run that was just dispatched.
func (s *RunStore) Start(ctx context.Context, r models.RunRecord) error {
	query, args, err := sq.Insert(runsTable).
		Columns(runColumns[:len(runColumns)-1]...).
		Values(
			r.ID,
			r.RunID,
			r.Silo,
			r.TestSuite,
			strings.Join(r.TestCases, ","),
			r.ResultArtifact,
			string(models.RunStatusRunning),
			"",
			r.StartedAt.UTC(),
		).
		ToSql()
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, query, args...)
	return err
}

// Finish closes the journal row of run id.
func (s *RunStore) Finish(ctx context.Context, id string, status models.RunStatus, artifact string, runErr error, at time.Time) error {
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}

	query, args, err := sq.Update(runsTable).
		Set(runColStatus, string(status)).
		Set(runColArtifact, artifact).
		Set(runColError, errMsg).
		Set(runColFinishedAt, at.UTC()).
		Where(sq.Eq{runColID: id}).
		ToSql()
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return srvErrors.NewRunNotFoundError()
	}
	return nil
}

func (s *RunStore) Get(ctx context.Context, id string) (*models.RunRecord, error) {
	query, args, err := sq.Select(runColumns...).
		From(runsTable).
		Where(sq.Eq{runColID: id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	r, err := scanRun(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewRunNotFoundError()
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// List returns journal rows, newest first unless a filter orders otherwise.
func (s *RunStore) List(ctx context.Context, filter *RunQueryFilter) ([]models.RunRecord, error) {
	builder := sq.Select(runColumns...).From(runsTable)
	if filter != nil {
		builder = filter.Apply(builder)
	}
	builder = builder.OrderBy(runColStartedAt + " DESC")

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []models.RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}

	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.RunRecord, error) {
	var (
		r        models.RunRecord
		cases    string
		status   string
		finished sql.NullTime
	)

	err := row.Scan(
		&r.ID,
		&r.RunID,
		&r.Silo,
		&r.TestSuite,
		&cases,
		&r.ResultArtifact,
		&status,
		&r.Error,
		&r.StartedAt,
		&finished,
	)
	if err != nil {
		return nil, err
	}

	if cases != "" {
		r.TestCases = strings.Split(cases, ",")
	}
	r.Status = models.RunStatus(status)
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}

	return &r, nil
}
