package appointments

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/audit"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/scheduler"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
)

// AppointmentRepository интерфейс репозитория приемов
type AppointmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
	TransitionStatus(ctx context.Context, p appointmentRepo.TransitionParams) error
	UpdateDetails(ctx context.Context, p appointmentRepo.UpdateDetailsParams) error
	MarkReminderSent(ctx context.Context, id int64, kind domain.ReminderKind) (bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Scheduler планировщик напоминаний
type Scheduler interface {
	ScheduleAt(at time.Time, name string, task scheduler.Task) scheduler.Handle
}

// Notifier асинхронная отправка уведомлений пациенту
type Notifier interface {
	Send(ctx context.Context, msg notification.Message) error
}

// EventPublisher публикация доменных событий
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// AvailabilityInvalidator сброс кэша слотов врача
type AvailabilityInvalidator interface {
	InvalidateAt(providerID int64, at time.Time)
}

// WaitlistCascade предложение освободившегося приема листу ожидания
type WaitlistCascade interface {
	NotifyNext(ctx context.Context, appointmentID int64) (*domain.WaitlistEntry, error)
}

// AuditRecorder журнал доступа к данным пациента
type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry)
}

// Metrics интерфейс метрик жизненного цикла
type Metrics interface {
	IncAppointmentTransition(event string)
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
