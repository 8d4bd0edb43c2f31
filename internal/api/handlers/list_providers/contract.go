package list_providers

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/directory/models"
)

type DirectoryService interface {
	ListProviders(ctx context.Context, req *models.ListProvidersRequest) (*models.ProvidersResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
