package availability

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrProviderNotFound возвращается, когда врач не найден
	ErrProviderNotFound = fmt.Errorf("availability: provider %w", domain.ErrNotFound)

	// ErrAppointmentTypeNotFound возвращается, когда тип приема не найден
	ErrAppointmentTypeNotFound = fmt.Errorf("availability: appointment type %w", domain.ErrNotFound)

	// ErrNoAvailability возвращается, когда в окне прогноза нет ни одного свободного слота
	ErrNoAvailability = errors.New("availability: no free slots in forecast window")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("availability: %w", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("availability: internal error")
)
