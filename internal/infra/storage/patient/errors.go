package patient

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrPatientNotFound возвращается, когда пациент не найден
	ErrPatientNotFound = fmt.Errorf("patient.repository: %w", domain.ErrNotFound)

	ErrBuildQuery = errors.New("patient.repository: failed to build query")
	ErrScanRow    = errors.New("patient.repository: failed to scan row")
)
