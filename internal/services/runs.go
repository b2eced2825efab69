package services

import (
	"context"
	"strings"

	"github.com/testcentral/outpost/internal/models"
	"github.com/testcentral/outpost/internal/store"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
	"github.com/testcentral/outpost/pkg/filter"
)

type RunLister interface {
	List(ctx context.Context, filter *store.RunQueryFilter) ([]models.RunRecord, error)
}

// RunHistoryService reads the run journal.
type RunHistoryService struct {
	runs RunLister
}

func NewRunHistoryService(runs RunLister) *RunHistoryService {
	return &RunHistoryService{runs: runs}
}

// List returns the runs of silo matching query, newest first. An empty silo
// matches every silo, an empty query matches every run and a limit of zero
// or less returns everything.
func (s *RunHistoryService) List(ctx context.Context, silo, query string, limit int) ([]models.RunRecord, error) {
	f := store.NewRunQueryFilter().BySilo(silo).Limit(limit)

	if strings.TrimSpace(query) != "" {
		expr, err := filter.Parse([]byte(query), store.RunFilterColumns)
		if err != nil {
			return nil, srvErrors.NewValidationError("filter", err.Error())
		}
		f = f.ByExpression(expr)
	}

	return s.runs.List(ctx, f)
}
