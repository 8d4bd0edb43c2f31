package get_next_available

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type AvailabilityService interface {
	ForecastNextAvailable(ctx context.Context, providerID int64, from time.Time, appointmentTypeID *int64) (*domain.Forecast, error)
	Location() *time.Location
}

type TimeProvider interface {
	Now() time.Time
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
