package schedules

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	providerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/provider"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedules/models"
)

const (
	maxSlotDurationMinutes = 480 // максимум 8 часов
	maxListRangeDays       = 92
)

// Service сервис управления расписаниями врачей
type Service struct {
	scheduleRepo ScheduleRepository
	providerRepo ProviderRepository
	availability AvailabilityInvalidator
	publisher    EventPublisher
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний
func NewService(
	scheduleRepo ScheduleRepository,
	providerRepo ProviderRepository,
	availability AvailabilityInvalidator,
	publisher EventPublisher,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		providerRepo: providerRepo,
		availability: availability,
		publisher:    publisher,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Upsert создает или заменяет расписание врача на дату
// Менять расписание может только сам врач
// Уже записанные приемы не переносятся: новые слоты считаются от нового расписания
func (s *Service) Upsert(ctx context.Context, req *models.UpsertScheduleRequest) (*models.ScheduleResponse, error) {
	s.logger.Info("Upsert: schedule for provider=%d date=%s by user=%d", req.ProviderID, req.Date, req.UserID)

	// 1. Проверяем права доступа
	if req.UserID != req.ProviderID {
		s.logger.Warn("Upsert: user=%d is not provider=%d", req.UserID, req.ProviderID)
		return nil, ErrAccessDenied
	}

	// 2. Валидируем входные данные
	schedule, err := req.ToDomainSchedule()
	if err != nil {
		s.logger.Warn("Upsert: invalid request: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := validateSchedule(schedule); err != nil {
		s.logger.Warn("Upsert: validation failed: %v", err)
		return nil, err
	}

	// 3. Проверяем врача
	if _, err := s.providerRepo.GetByID(ctx, req.ProviderID); err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			s.logger.Warn("Upsert: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		s.logger.Error("Upsert: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	// 4. Сохраняем
	saved, err := s.scheduleRepo.Upsert(ctx, schedule)
	if err != nil {
		s.logger.Error("Upsert: repository error: %v", err)
		return nil, fmt.Errorf("%w: Upsert - repository error: %v", ErrInternal, err)
	}

	// 5. Слоты на дату изменились
	s.availability.Invalidate(saved.ProviderID, saved.Date)
	if s.publisher != nil {
		event := domain.NewAvailabilityEvent(saved.ProviderID, saved.Date, s.timeProvider.Now())
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn("Upsert: failed to publish %s: %v", event.Type, err)
		}
	}

	s.logger.Info("Upsert: saved schedule id=%d", saved.ID)
	return models.FromDomainSchedule(saved), nil
}

// List возвращает расписания врача за период [From, To]
// Публичный метод, доступен всем
func (s *Service) List(ctx context.Context, req *models.ListSchedulesRequest) (*models.ScheduleListResponse, error) {
	s.logger.Info("List: schedules for provider=%d from %s to %s",
		req.ProviderID, req.From.Format(domain.DateFormat), req.To.Format(domain.DateFormat))

	if req.To.Before(req.From) {
		return nil, fmt.Errorf("%w: date range is reversed", ErrInvalidInput)
	}
	if req.To.Sub(req.From).Hours()/24 > maxListRangeDays {
		return nil, fmt.Errorf("%w: date range exceeds %d days", ErrInvalidInput, maxListRangeDays)
	}

	schedules, err := s.scheduleRepo.ListByProviderAndRange(ctx, req.ProviderID, req.From, req.To)
	if err != nil {
		s.logger.Error("List: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: found %d schedules for provider=%d", len(schedules), req.ProviderID)
	return models.FromDomainScheduleList(schedules), nil
}

// validateSchedule валидирует параметры расписания
func validateSchedule(s *domain.ProviderSchedule) error {
	if s.ProviderID <= 0 {
		return fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	if s.SlotDurationMinutes <= 0 || s.SlotDurationMinutes > maxSlotDurationMinutes {
		return fmt.Errorf("%w: slotDurationMinutes must be between 1 and %d", ErrInvalidInput, maxSlotDurationMinutes)
	}

	if !s.StartTime.IsBefore(s.EndTime) {
		return fmt.Errorf("%w: startTime must be before endTime", ErrInvalidInput)
	}

	return nil
}
