package list_appointment_types

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/directory/models"
)

type DirectoryService interface {
	ListAppointmentTypes(ctx context.Context) (*models.AppointmentTypesResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
