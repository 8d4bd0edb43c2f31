package waitlist

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/scheduler"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
)

// WaitlistRepository интерфейс репозитория листа ожидания
// Все изменения статуса условные: запись меняется, только если статус и версия совпали
type WaitlistRepository interface {
	Create(ctx context.Context, e *domain.WaitlistEntry) (*domain.WaitlistEntry, error)
	GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error)
	ListCandidates(ctx context.Context, filter domain.WaitlistCandidatesFilter) ([]*domain.WaitlistEntry, error)
	GetOutstandingOffer(ctx context.Context, appointmentID int64) (*domain.WaitlistEntry, error)
	ListNotified(ctx context.Context) ([]*domain.WaitlistEntry, error)
	MarkNotified(ctx context.Context, id, version, appointmentID int64, notifiedAt, expiresAt time.Time) error
	CompareAndSetStatus(ctx context.Context, id, version int64, from, to domain.WaitlistStatus, at time.Time) error
	ExpireCompetitors(ctx context.Context, filter domain.WaitlistCandidatesFilter, at time.Time) ([]int64, error)
	UpdatePriority(ctx context.Context, id int64, priority int, at time.Time) error
}

// AppointmentRepository интерфейс репозитория приемов
type AppointmentRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
	Reassign(ctx context.Context, id, patientID int64, at time.Time) error
	CountHistory(ctx context.Context, patientID int64) (domain.PatientHistory, error)
}

// ProviderRepository интерфейс репозитория врачей
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
}

// ReminderScheduler постановка напоминаний о приеме
type ReminderScheduler interface {
	ScheduleReminders(a *domain.Appointment) int
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// Scheduler планировщик таймеров истечения окна подтверждения
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

// Metrics интерфейс метрик листа ожидания
type Metrics interface {
	IncWaitlistNotification()
	IncWaitlistClaim(result string)
	IncWaitlistExpiration()
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
