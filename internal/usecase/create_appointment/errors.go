package create_appointment

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrProviderNotFound возвращается, когда врач не найден
	ErrProviderNotFound = fmt.Errorf("create_appointment: provider %w", domain.ErrNotFound)

	// ErrPatientNotFound возвращается, когда пациент не найден
	ErrPatientNotFound = fmt.Errorf("create_appointment: patient %w", domain.ErrNotFound)

	// ErrAppointmentTypeNotFound возвращается, когда тип приема не найден
	ErrAppointmentTypeNotFound = fmt.Errorf("create_appointment: appointment type %w", domain.ErrNotFound)

	// ErrInvalidSchedule возвращается, когда время приема не в будущем
	ErrInvalidSchedule = fmt.Errorf("create_appointment: appointment must be scheduled in the future: %w", domain.ErrValidation)

	// ErrProviderUnavailable возвращается, когда у врача нет доступного расписания на дату
	ErrProviderUnavailable = fmt.Errorf("create_appointment: %w", domain.ErrProviderUnavailable)

	// ErrSchedulingConflict возвращается при пересечении с приемом врача или пациента
	ErrSchedulingConflict = fmt.Errorf("create_appointment: %w", domain.ErrSchedulingConflict)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("create_appointment: invalid input data: %w", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_appointment: internal error")
)
