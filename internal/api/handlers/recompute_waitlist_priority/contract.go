package recompute_waitlist_priority

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type WaitlistService interface {
	RecomputePriority(ctx context.Context, entryID int64) (*domain.WaitlistEntry, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
