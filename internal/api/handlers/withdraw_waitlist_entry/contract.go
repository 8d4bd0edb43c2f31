package withdraw_waitlist_entry

import (
	"context"
)

type WaitlistService interface {
	Withdraw(ctx context.Context, entryID, patientID int64) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
