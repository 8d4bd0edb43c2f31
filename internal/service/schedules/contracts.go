package schedules

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	ListByProviderAndRange(ctx context.Context, providerID int64, from, to time.Time) ([]*domain.ProviderSchedule, error)
	Upsert(ctx context.Context, s *domain.ProviderSchedule) (*domain.ProviderSchedule, error)
}

// ProviderRepository интерфейс репозитория врачей
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
}

// AvailabilityInvalidator сбрасывает кеш свободных слотов
type AvailabilityInvalidator interface {
	Invalidate(providerID int64, date time.Time)
}

// EventPublisher публикует доменные события
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
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
