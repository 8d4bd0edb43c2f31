package directory

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrProviderNotFound возвращается, когда врач не найден
	ErrProviderNotFound = fmt.Errorf("directory: provider %w", domain.ErrNotFound)

	// ErrAppointmentTypeNotFound возвращается, когда тип приема не найден
	ErrAppointmentTypeNotFound = fmt.Errorf("directory: appointment type %w", domain.ErrNotFound)

	// ErrInvalidInput возвращается при некорректных параметрах поиска
	ErrInvalidInput = fmt.Errorf("directory: invalid input: %w", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("directory: internal error")
)
