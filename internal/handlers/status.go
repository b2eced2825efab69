package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/testcentral/outpost/api/v1"
)

// GetStatus reports the run state, available tests and latest results of a silo
// (GET /status)
func (h *Handler) GetStatus(c *gin.Context, params v1.GetStatusParams) {
	var silo string
	if params.Silo != nil {
		silo = *params.Silo
	}

	status, err := h.statusSrv.GetStatus(c.Request.Context(), silo)
	if err != nil {
		zap.S().Named("status_handler").Warnw("failed to assemble status", "silo", silo, "error", err)
		c.JSON(http.StatusInternalServerError, v1.NewStatusError(err))
		return
	}

	c.JSON(http.StatusOK, v1.StatusResponse{Data: v1.NewOutpostStatus(*status)})
}
