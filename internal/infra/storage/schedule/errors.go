package schedule

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrScheduleNotFound возвращается, когда у врача нет расписания на дату
	ErrScheduleNotFound = fmt.Errorf("schedule.repository: %w", domain.ErrNotFound)

	ErrBuildQuery = errors.New("schedule.repository: failed to build query")
	ErrExecQuery  = errors.New("schedule.repository: failed to execute query")
	ErrScanRow    = errors.New("schedule.repository: failed to scan row")
)
