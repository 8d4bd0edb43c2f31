package schedules

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrProviderNotFound возвращается, когда врач не найден
	ErrProviderNotFound = fmt.Errorf("schedules: provider %w", domain.ErrNotFound)

	// ErrAccessDenied возвращается, когда расписание меняет не сам врач
	ErrAccessDenied = fmt.Errorf("schedules: access denied: %w", domain.ErrForbidden)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("schedules: invalid input data: %w", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("schedules: internal error")
)
