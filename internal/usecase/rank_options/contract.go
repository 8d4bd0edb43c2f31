package rank_options

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ProviderRepository интерфейс репозитория врачей
type ProviderRepository interface {
	List(ctx context.Context, filter domain.ProviderFilter) ([]*domain.Provider, error)
}

// PatientRepository интерфейс репозитория пациентов
type PatientRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Patient, error)
}

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	ListByProviderAndRange(ctx context.Context, providerID int64, from, to time.Time) ([]*domain.ProviderSchedule, error)
}

// AppointmentRepository интерфейс репозитория приемов
type AppointmentRepository interface {
	List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
	CountHistory(ctx context.Context, patientID int64) (domain.PatientHistory, error)
}

// AppointmentTypeRepository интерфейс репозитория типов приема
type AppointmentTypeRepository interface {
	GetByName(ctx context.Context, name string) (*domain.AppointmentType, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
