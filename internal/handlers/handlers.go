package handlers

import (
	"context"

	v1 "github.com/testcentral/outpost/api/v1"
	"github.com/testcentral/outpost/internal/models"
)

var _ v1.ServerInterface = (*Handler)(nil)

type ExecutionService interface {
	Execute(ctx context.Context, req models.ExecutionRequest) (*models.JobDescription, error)
}

type StatusService interface {
	GetStatus(ctx context.Context, silo string) (*models.OutpostStatus, error)
}

type RunHistoryService interface {
	List(ctx context.Context, silo, filter string, limit int) ([]models.RunRecord, error)
}

type Handler struct {
	execSrv    ExecutionService
	statusSrv  StatusService
	historySrv RunHistoryService
}

func New(execSrv ExecutionService, statusSrv StatusService, historySrv RunHistoryService) *Handler {
	return &Handler{
		execSrv:    execSrv,
		statusSrv:  statusSrv,
		historySrv: historySrv,
	}
}
