package waitlist

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrEntryNotFound возвращается, когда запись листа ожидания не найдена
	ErrEntryNotFound = fmt.Errorf("waitlist: entry %w", domain.ErrNotFound)

	// ErrAppointmentNotFound возвращается, когда освободившийся прием не найден
	ErrAppointmentNotFound = fmt.Errorf("waitlist: appointment %w", domain.ErrNotFound)

	// ErrAccessDenied возвращается, когда пациент обращается к чужой записи
	ErrAccessDenied = fmt.Errorf("waitlist: %w", domain.ErrForbidden)

	// ErrClaimRejected возвращается, когда окно подтверждения закрыто или слот забрал другой пациент
	ErrClaimRejected = fmt.Errorf("waitlist: claim rejected: %w", domain.ErrSlotUnavailable)

	// ErrClaimConflict возвращается, когда прием пересекается с другим активным приемом врача или пациента
	ErrClaimConflict = fmt.Errorf("waitlist: claim conflicts with another appointment: %w", domain.ErrSchedulingConflict)

	// ErrSlotNotFree возвращается, когда прием больше не свободен для предложения
	ErrSlotNotFree = fmt.Errorf("waitlist: appointment is not free: %w", domain.ErrSlotUnavailable)

	// ErrInvalidTransition возвращается при недопустимом изменении статуса записи
	ErrInvalidTransition = fmt.Errorf("waitlist: %w", domain.ErrInvalidTransition)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("waitlist: %w", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("waitlist: internal error")
)
