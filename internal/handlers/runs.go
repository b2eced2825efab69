package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/testcentral/outpost/api/v1"
	"github.com/testcentral/outpost/internal/models"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
	"github.com/testcentral/outpost/pkg/report"
)

// ListRuns returns the run journal
// (GET /runs)
func (h *Handler) ListRuns(c *gin.Context, params v1.ListRunsParams) {
	runs, ok := h.listRuns(c, params)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, v1.NewRunList(runs))
}

// ExportRuns returns the run journal as a spreadsheet
// (GET /runs/export)
func (h *Handler) ExportRuns(c *gin.Context, params v1.ListRunsParams) {
	runs, ok := h.listRuns(c, params)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteRuns(&buf, runs); err != nil {
		zap.S().Named("runs_handler").Errorw("failed to render runs report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render runs report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "runs.xlsx"))
	c.Data(http.StatusOK, report.ContentType, buf.Bytes())
}

// listRuns queries the journal and writes the error response itself when it fails.
func (h *Handler) listRuns(c *gin.Context, params v1.ListRunsParams) ([]models.RunRecord, bool) {
	var (
		silo  string
		query string
		limit int
	)
	if params.Silo != nil {
		silo = *params.Silo
	}
	if params.Filter != nil {
		query = *params.Filter
	}
	if params.Limit != nil {
		limit = *params.Limit
	}

	runs, err := h.historySrv.List(c.Request.Context(), silo, query, limit)
	switch {
	case err == nil:
		return runs, true
	case srvErrors.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		zap.S().Named("runs_handler").Errorw("failed to list runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
	}
	return nil, false
}
