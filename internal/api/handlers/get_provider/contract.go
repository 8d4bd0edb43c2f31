package get_provider

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/directory/models"
)

type DirectoryService interface {
	GetProvider(ctx context.Context, id int64) (*models.ProviderResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
