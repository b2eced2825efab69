package v1

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (POST /execute)
	Execute(c *gin.Context)
	// (GET /status)
	GetStatus(c *gin.Context, params GetStatusParams)
	// (GET /runs)
	ListRuns(c *gin.Context, params ListRunsParams)
	// (GET /runs/export)
	ExportRuns(c *gin.Context, params ListRunsParams)
	// (GET /health)
	GetHealth(c *gin.Context)
}

// ServerInterfaceWrapper converts gin contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler      ServerInterface
	ErrorHandler func(*gin.Context, error, int)
}

// Execute operation middleware
func (siw *ServerInterfaceWrapper) Execute(c *gin.Context) {
	siw.Handler.Execute(c)
}

// GetStatus operation middleware
func (siw *ServerInterfaceWrapper) GetStatus(c *gin.Context) {
	var params GetStatusParams

	if err := runtime.BindQueryParameter("form", true, false, "silo", c.Request.URL.Query(), &params.Silo); err != nil {
		siw.ErrorHandler(c, fmt.Errorf("invalid format for parameter silo: %w", err), http.StatusBadRequest)
		return
	}

	siw.Handler.GetStatus(c, params)
}

// ListRuns operation middleware
func (siw *ServerInterfaceWrapper) ListRuns(c *gin.Context) {
	params, err := bindListRunsParams(c)
	if err != nil {
		siw.ErrorHandler(c, err, http.StatusBadRequest)
		return
	}

	siw.Handler.ListRuns(c, params)
}

// ExportRuns operation middleware
func (siw *ServerInterfaceWrapper) ExportRuns(c *gin.Context) {
	params, err := bindListRunsParams(c)
	if err != nil {
		siw.ErrorHandler(c, err, http.StatusBadRequest)
		return
	}

	siw.Handler.ExportRuns(c, params)
}

// GetHealth operation middleware
func (siw *ServerInterfaceWrapper) GetHealth(c *gin.Context) {
	siw.Handler.GetHealth(c)
}

func bindListRunsParams(c *gin.Context) (ListRunsParams, error) {
	var params ListRunsParams

	if err := runtime.BindQueryParameter("form", true, false, "silo", c.Request.URL.Query(), &params.Silo); err != nil {
		return params, fmt.Errorf("invalid format for parameter silo: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.Request.URL.Query(), &params.Limit); err != nil {
		return params, fmt.Errorf("invalid format for parameter limit: %w", err)
	}
	if params.Limit != nil && *params.Limit < 0 {
		return params, fmt.Errorf("invalid format for parameter limit: must not be negative")
	}
	if err := runtime.BindQueryParameter("form", true, false, "filter", c.Request.URL.Query(), &params.Filter); err != nil {
		return params, fmt.Errorf("invalid format for parameter filter: %w", err)
	}

	return params, nil
}

// GinServerOptions provides options for the Gin server.
type GinServerOptions struct {
	ErrorHandler func(*gin.Context, error, int)
}

// RegisterHandlers creates http.Handler with routing matching OpenAPI spec.
func RegisterHandlers(router gin.IRouter, si ServerInterface) {
	RegisterHandlersWithOptions(router, si, GinServerOptions{})
}

// RegisterHandlersWithOptions creates http.Handler with additional options
func RegisterHandlersWithOptions(router gin.IRouter, si ServerInterface, options GinServerOptions) {
	errorHandler := options.ErrorHandler
	if errorHandler == nil {
		errorHandler = func(c *gin.Context, err error, statusCode int) {
			msg := err.Error()
			c.JSON(statusCode, ExecuteResponse{Status: false, Message: &msg})
		}
	}

	wrapper := ServerInterfaceWrapper{
		Handler:      si,
		ErrorHandler: errorHandler,
	}

	router.POST("/execute", wrapper.Execute)
	router.GET("/status", wrapper.GetStatus)
	router.GET("/runs", wrapper.ListRuns)
	router.GET("/runs/export", wrapper.ExportRuns)
	router.GET("/health", wrapper.GetHealth)
}
