package rank_options

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrPatientNotFound возвращается, когда пациент не найден
	ErrPatientNotFound = fmt.Errorf("rank_options: patient %w", domain.ErrNotFound)

	// ErrAppointmentTypeNotFound возвращается, когда в справочнике нет выведенного типа приема
	ErrAppointmentTypeNotFound = fmt.Errorf("rank_options: appointment type %w", domain.ErrNotFound)

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = fmt.Errorf("rank_options: invalid input data: %w", domain.ErrValidation)

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("rank_options: internal error")
)
