package availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ProviderRepository интерфейс репозитория врачей
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
}

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetByProviderAndDate(ctx context.Context, providerID int64, date time.Time) (*domain.ProviderSchedule, error)
	ListByProviderAndRange(ctx context.Context, providerID int64, from, to time.Time) ([]*domain.ProviderSchedule, error)
}

// AppointmentRepository интерфейс репозитория приемов
type AppointmentRepository interface {
	List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
}

// AppointmentTypeRepository интерфейс репозитория типов приема
type AppointmentTypeRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.AppointmentType, error)
}

// SlotCache кэш сгенерированных слотов
type SlotCache interface {
	Get(key string) ([]domain.Slot, bool)
	Set(key string, value []domain.Slot)
	DeletePrefix(prefix string) int
}

// Metrics интерфейс метрик кэша
type Metrics interface {
	IncCache(result string)
}

// TimeProvider интерфейс для получения текущего времени
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
