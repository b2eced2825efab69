// Package report renders the run journal as a spreadsheet.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/testcentral/outpost/internal/models"
)

const (
	SheetName   = "Runs"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var header = []any{"ID", "Run ID", "Silo", "Test suite", "Test cases", "Status", "Result artifact", "Error", "Started at", "Finished at"}

// WriteRuns writes runs as an XLSX workbook with one row per run below a header row.
func WriteRuns(w io.Writer, runs []models.RunRecord) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return err
	}

	for i, r := range runs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			r.ID,
			r.RunID,
			r.Silo,
			r.TestSuite,
			strings.Join(r.TestCases, ", "),
			string(r.Status),
			r.ResultArtifact,
			r.Error,
			r.StartedAt.UTC().Format(time.RFC3339),
			formatTime(r.FinishedAt),
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("writing run %s: %w", r.ID, err)
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 38); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "E", "E", 60); err != nil {
		return err
	}

	return f.Write(w)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
