package appointments

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrAppointmentNotFound возвращается, когда прием не найден
	ErrAppointmentNotFound = fmt.Errorf("appointments: appointment %w", domain.ErrNotFound)

	// ErrAccessDenied возвращается, когда пользователь не участник приема
	ErrAccessDenied = fmt.Errorf("appointments: access denied: %w", domain.ErrForbidden)

	// ErrInvalidTransition возвращается при недопустимом событии для текущего статуса
	ErrInvalidTransition = fmt.Errorf("appointments: %w", domain.ErrInvalidTransition)

	// ErrPolicyViolation возвращается, когда отмена нарушает правило уведомления
	ErrPolicyViolation = fmt.Errorf("appointments: %w", domain.ErrPolicyViolation)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("appointments: invalid input: %w", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("appointments: internal error")
)
