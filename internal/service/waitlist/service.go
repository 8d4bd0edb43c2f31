package waitlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/scheduler"
	waitlistRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-AppointmentService/internal/service/waitlist/models"
)

// Config параметры листа ожидания
type Config struct {
	Location    *time.Location // часовой пояс клиники, по нему считаются дата и часть дня слота
	ClaimWindow time.Duration  // окно подтверждения предложения
}

// Service лист ожидания: приоритеты, предложение освободившихся слотов и их подтверждение
type Service struct {
	waitlistRepo    WaitlistRepository
	appointmentRepo AppointmentRepository
	providerRepo    ProviderRepository
	txManager       TransactionManager
	scheduler       Scheduler
	notifier        Notifier
	publisher       EventPublisher
	availability    AvailabilityInvalidator
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
	loc             *time.Location
	claimWindow     time.Duration

	reminders ReminderScheduler

	mu     sync.Mutex
	timers map[int64]scheduler.Handle // entryID -> таймер истечения предложения
}

// NewService создает новый экземпляр сервиса листа ожидания
func NewService(
	waitlistRepo WaitlistRepository,
	appointmentRepo AppointmentRepository,
	providerRepo ProviderRepository,
	txManager TransactionManager,
	timers Scheduler,
	notifier Notifier,
	publisher EventPublisher,
	availability AvailabilityInvalidator,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ClaimWindow <= 0 {
		cfg.ClaimWindow = domain.DefaultClaimWindow
	}
	return &Service{
		waitlistRepo:    waitlistRepo,
		appointmentRepo: appointmentRepo,
		providerRepo:    providerRepo,
		txManager:       txManager,
		scheduler:       timers,
		notifier:        notifier,
		publisher:       publisher,
		availability:    availability,
		metrics:         metrics,
		timeProvider:    timeProvider,
		logger:          logger,
		loc:             cfg.Location,
		claimWindow:     cfg.ClaimWindow,
		timers:          make(map[int64]scheduler.Handle),
	}
}

// SetReminderScheduler подключает напоминания для приемов, полученных из листа ожидания
// Сервис приемов создается после листа ожидания, поэтому зависимость передается отдельно
func (s *Service) SetReminderScheduler(r ReminderScheduler) {
	s.reminders = r
}

// Join ставит пациента в лист ожидания
// Приоритет вычисляется при создании записи
func (s *Service) Join(ctx context.Context, req *models.JoinRequest) (*domain.WaitlistEntry, error) {
	s.logger.Info("Join: patient=%d provider=%d type=%d", req.PatientID, req.ProviderID, req.AppointmentTypeID)

	entry, err := req.ToDomainEntry()
	if err != nil {
		s.logger.Warn("Join: invalid request for patient=%d: %v", req.PatientID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.timeProvider.Now()
	if err := s.validateEntry(entry, now); err != nil {
		s.logger.Warn("Join: validation failed for patient=%d: %v", req.PatientID, err)
		return nil, err
	}

	history, err := s.appointmentRepo.CountHistory(ctx, entry.PatientID)
	if err != nil {
		s.logger.Error("Join: failed to count history for patient=%d: %v", entry.PatientID, err)
		return nil, fmt.Errorf("%w: Join - count history: %v", ErrInternal, err)
	}

	entry.CreatedAt = now
	entry.UpdatedAt = now
	entry.Priority = PriorityFor(entry, history, now)

	created, err := s.waitlistRepo.Create(ctx, entry)
	if err != nil {
		s.logger.Error("Join: failed to create entry for patient=%d: %v", entry.PatientID, err)
		return nil, fmt.Errorf("%w: Join - create entry: %v", ErrInternal, err)
	}

	s.publish(ctx, "Join", domain.NewWaitlistEvent(created, now))

	s.logger.Info("Join: created entry id=%d priority=%d", created.ID, created.Priority)
	return created, nil
}

// RecomputePriority пересчитывает приоритет записи по текущему времени ожидания и истории пациента
// Пересчет выполняется только по явному вызову
func (s *Service) RecomputePriority(ctx context.Context, entryID int64) (*domain.WaitlistEntry, error) {
	s.logger.Info("RecomputePriority: entry id=%d", entryID)

	entry, err := s.getEntry(ctx, "RecomputePriority", entryID)
	if err != nil {
		return nil, err
	}

	history, err := s.appointmentRepo.CountHistory(ctx, entry.PatientID)
	if err != nil {
		s.logger.Error("RecomputePriority: failed to count history for patient=%d: %v", entry.PatientID, err)
		return nil, fmt.Errorf("%w: RecomputePriority - count history: %v", ErrInternal, err)
	}

	now := s.timeProvider.Now()
	priority := PriorityFor(entry, history, now)

	if err := s.waitlistRepo.UpdatePriority(ctx, entry.ID, priority, now); err != nil {
		if errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			return nil, ErrEntryNotFound
		}
		s.logger.Error("RecomputePriority: failed to update entry id=%d: %v", entry.ID, err)
		return nil, fmt.Errorf("%w: RecomputePriority - update priority: %v", ErrInternal, err)
	}

	s.logger.Info("RecomputePriority: entry id=%d priority %d -> %d", entry.ID, entry.Priority, priority)
	entry.Priority = priority
	entry.UpdatedAt = now
	return entry, nil
}

// Withdraw снимает запись пациента с листа ожидания
// Если у записи было действующее предложение, слот предлагается следующему претенденту
func (s *Service) Withdraw(ctx context.Context, entryID, patientID int64) error {
	s.logger.Info("Withdraw: entry id=%d by patient=%d", entryID, patientID)

	now := s.timeProvider.Now()
	var withdrawn *domain.WaitlistEntry
	var offered *int64

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		entry, err := s.getEntry(ctx, "Withdraw", entryID)
		if err != nil {
			return err
		}
		if entry.PatientID != patientID {
			s.logger.Warn("Withdraw: patient=%d is not owner of entry id=%d", patientID, entryID)
			return ErrAccessDenied
		}

		next, err := domain.NextWaitlistStatus(entry.Status, domain.WaitlistEventWithdraw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}

		if err := s.waitlistRepo.CompareAndSetStatus(ctx, entry.ID, entry.Version, entry.Status, next, now); err != nil {
			if errors.Is(err, waitlistRepo.ErrVersionConflict) {
				return fmt.Errorf("%w: entry id=%d changed concurrently", ErrInvalidTransition, entry.ID)
			}
			return fmt.Errorf("%w: Withdraw - update status: %w", ErrInternal, err)
		}

		if entry.Status == domain.WaitlistNotified {
			offered = entry.OfferedAppointmentID
		}
		entry.Status = next
		entry.Version++
		entry.UpdatedAt = now
		withdrawn = entry
		return nil
	})
	if err != nil {
		s.logger.Warn("Withdraw: entry id=%d not withdrawn: %v", entryID, err)
		return err
	}

	s.cancelTimer(entryID)
	s.publish(ctx, "Withdraw", domain.NewWaitlistEvent(withdrawn, now))
	s.logger.Info("Withdraw: entry id=%d cancelled", entryID)

	if offered != nil {
		s.cascade(ctx, "Withdraw", *offered)
	}
	return nil
}

func (s *Service) validateEntry(e *domain.WaitlistEntry, now time.Time) error {
	if e.PatientID <= 0 || e.ProviderID <= 0 || e.AppointmentTypeID <= 0 {
		return fmt.Errorf("%w: patient, provider and appointment type ids must be positive", ErrInvalidInput)
	}
	if e.PreferredDateEnd.Before(e.PreferredDateStart) {
		return fmt.Errorf("%w: preferred date range is reversed", ErrInvalidInput)
	}
	y, m, d := now.In(s.loc).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if e.PreferredDateEnd.Before(today) {
		return fmt.Errorf("%w: preferred date range is in the past", ErrInvalidInput)
	}
	if len(e.PreferredTimeOfDay) == 0 {
		return fmt.Errorf("%w: at least one preferred time of day is required", ErrInvalidInput)
	}
	if e.Notes != nil && len(*e.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes too long", ErrInvalidInput)
	}
	return nil
}

func (s *Service) getEntry(ctx context.Context, op string, entryID int64) (*domain.WaitlistEntry, error) {
	entry, err := s.waitlistRepo.GetByID(ctx, entryID)
	if err != nil {
		if errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			s.logger.Warn("%s: entry id=%d not found", op, entryID)
			return nil, ErrEntryNotFound
		}
		s.logger.Error("%s: failed to get entry id=%d: %v", op, entryID, err)
		return nil, fmt.Errorf("%w: %s - get entry: %w", ErrInternal, op, err)
	}
	return entry, nil
}

func (s *Service) publish(ctx context.Context, op string, event domain.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("%s: failed to publish %s: %v", op, event.Type, err)
	}
}
