package create_appointment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/insuranceservice"
)

// AppointmentRepository интерфейс репозитория приемов
type AppointmentRepository interface {
	Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
}

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetByProviderAndDate(ctx context.Context, providerID int64, date time.Time) (*domain.ProviderSchedule, error)
}

// ProviderRepository интерфейс репозитория врачей
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
}

// PatientRepository интерфейс репозитория пациентов
type PatientRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Patient, error)
}

// AppointmentTypeRepository интерфейс репозитория типов приема
type AppointmentTypeRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.AppointmentType, error)
}

// InsuranceClient интерфейс клиента сервиса страховой
type InsuranceClient interface {
	VerifyEligibilityWithGracefulDegradation(ctx context.Context, req insuranceservice.EligibilityRequest) (*insuranceservice.EligibilityResponse, error)
}

// AvailabilityInvalidator сброс кэша слотов врача
type AvailabilityInvalidator interface {
	InvalidateAt(providerID int64, at time.Time)
}

// EventPublisher публикация доменных событий
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
