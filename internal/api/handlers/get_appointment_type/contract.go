package get_appointment_type

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/service/directory/models"
)

type DirectoryService interface {
	GetAppointmentType(ctx context.Context, id int64) (*models.AppointmentTypeResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
