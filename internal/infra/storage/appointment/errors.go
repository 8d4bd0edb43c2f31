package appointment

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrAppointmentNotFound возвращается, когда прием не найден
	ErrAppointmentNotFound = fmt.Errorf("appointment.repository: %w", domain.ErrNotFound)

	// ErrStatusConflict возвращается, когда условное обновление не нашло прием в ожидаемом статусе
	ErrStatusConflict = errors.New("appointment.repository: status changed concurrently")

	// ErrConfirmationNumberTaken возвращается при коллизии номера подтверждения
	ErrConfirmationNumberTaken = errors.New("appointment.repository: confirmation number already exists")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("appointment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("appointment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("appointment.repository: failed to scan row")
)
