package claim_waitlist_entry

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type WaitlistService interface {
	AttemptClaim(ctx context.Context, entryID, patientID int64) (*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
