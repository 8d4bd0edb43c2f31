package appointmenttype

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	ErrAppointmentTypeNotFound = fmt.Errorf("appointmenttype.repository: %w", domain.ErrNotFound)

	ErrBuildQuery = errors.New("appointmenttype.repository: failed to build query")
	ErrExecQuery  = errors.New("appointmenttype.repository: failed to execute query")
	ErrScanRow    = errors.New("appointmenttype.repository: failed to scan row")
)
