package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/testcentral/outpost/api/v1"
	srvErrors "github.com/testcentral/outpost/pkg/errors"
)

// Execute starts a test run. Test Central only distinguishes accepted (201)
// from rejected (500), so busy, malformed and invalid requests all answer 500.
// (POST /execute)
func (h *Handler) Execute(c *gin.Context) {
	var req v1.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		rejectExecute(c, fmt.Sprintf("invalid request body: %s", err))
		return
	}

	job, err := h.execSrv.Execute(c.Request.Context(), req.ToModel())
	if err != nil {
		switch err.(type) {
		case *srvErrors.RunInProgressError, *srvErrors.ValidationError:
			zap.S().Named("execute_handler").Infow("execution request rejected", "run_id", req.RunId, "reason", err)
		default:
			zap.S().Named("execute_handler").Errorw("failed to start run", "run_id", req.RunId, "error", err)
		}
		rejectExecute(c, err.Error())
		return
	}

	zap.S().Named("execute_handler").Debugw("run accepted", "run_id", job.RunID, "job_id", job.ID)
	c.JSON(http.StatusCreated, v1.ExecuteResponse{Status: true})
}

func rejectExecute(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, v1.ExecuteResponse{Status: false, Message: &msg})
}
