package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/testcentral/outpost/internal/models"
	"github.com/testcentral/outpost/pkg/filter"
)

// RunFilterColumns exposes journal columns to the filter language.
var RunFilterColumns = filter.Columns{
	"id":          {Name: runColID},
	"run_id":      {Name: runColRunID},
	"silo":        {Name: runColSilo},
	"testsuite":   {Name: runColSuite},
	"testcases":   {Name: runColCases},
	"artifact":    {Name: runColArtifact},
	"status":      {Name: runColStatus},
	"error":       {Name: runColError},
	"started_at":  {Name: runColStartedAt, Kind: filter.TimeKind},
	"finished_at": {Name: runColFinishedAt, Kind: filter.TimeKind},
}

type RunFilterFunc func(sq.SelectBuilder) sq.SelectBuilder

type RunQueryFilter struct {
	filters []RunFilterFunc
}

func NewRunQueryFilter() *RunQueryFilter {
	return &RunQueryFilter{
		filters: make([]RunFilterFunc, 0),
	}
}

func (f *RunQueryFilter) Add(fn RunFilterFunc) *RunQueryFilter {
	f.filters = append(f.filters, fn)
	return f
}

func (f *RunQueryFilter) BySilo(silo string) *RunQueryFilter {
	if silo == "" {
		return f
	}
	return f.Add(func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.Eq{runColSilo: silo})
	})
}

func (f *RunQueryFilter) ByStatus(statuses ...models.RunStatus) *RunQueryFilter {
	if len(statuses) == 0 {
		return f
	}
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return f.Add(func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.Eq{runColStatus: values})
	})
}

// ByExpression narrows the query with a parsed filter expression. A nil
// expression leaves the query untouched.
func (f *RunQueryFilter) ByExpression(expr filter.Expression) *RunQueryFilter {
	if expr == nil {
		return f
	}
	return f.Add(func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(expr)
	})
}

// Limit caps the number of rows. Zero or less means no limit.
func (f *RunQueryFilter) Limit(limit int) *RunQueryFilter {
	if limit <= 0 {
		return f
	}
	return f.Add(func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(uint64(limit))
	})
}

func (f *RunQueryFilter) Apply(builder sq.SelectBuilder) sq.SelectBuilder {
	for _, fn := range f.filters {
		builder = fn(builder)
	}
	return builder
}
