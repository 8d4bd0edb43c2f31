package notify_waitlist

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type WaitlistService interface {
	NotifyNext(ctx context.Context, appointmentID int64) (*domain.WaitlistEntry, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
