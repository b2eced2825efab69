package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/testcentral/outpost/api/v1"
)

// (GET /health)
func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, v1.Health{Status: "ok"})
}
