package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentTypeRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointmenttype"
	providerRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/provider"
	scheduleRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/schedule"
)

const (
	cacheHit  = "hit"
	cacheMiss = "miss"
)

// Config параметры сервиса доступности
type Config struct {
	Location     *time.Location // часовой пояс клиники
	ForecastDays int            // окно прогноза [from, from+ForecastDays]
}

// Service генерирует свободные слоты и прогнозирует ближайшую доступность врача
type Service struct {
	providerRepo        ProviderRepository
	scheduleRepo        ScheduleRepository
	appointmentRepo     AppointmentRepository
	appointmentTypeRepo AppointmentTypeRepository
	cache               SlotCache
	metrics             Metrics
	timeProvider        TimeProvider
	logger              Logger
	loc                 *time.Location
	forecastDays        int
}

// NewService создает новый экземпляр сервиса доступности
// cache и metrics могут быть nil
func NewService(
	providerRepo ProviderRepository,
	scheduleRepo ScheduleRepository,
	appointmentRepo AppointmentRepository,
	appointmentTypeRepo AppointmentTypeRepository,
	cache SlotCache,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = domain.DefaultForecastDays
	}
	return &Service{
		providerRepo:        providerRepo,
		scheduleRepo:        scheduleRepo,
		appointmentRepo:     appointmentRepo,
		appointmentTypeRepo: appointmentTypeRepo,
		cache:               cache,
		metrics:             metrics,
		timeProvider:        timeProvider,
		logger:              logger,
		loc:                 cfg.Location,
		forecastDays:        cfg.ForecastDays,
	}
}

// Location часовой пояс клиники
func (s *Service) Location() *time.Location {
	return s.loc
}

// GetSlots возвращает свободные слоты врача на дату
// Если appointmentTypeID не задан, длительность слота берется из расписания
// Прошедшие слоты не возвращаются, пустой список означает отсутствие расписания на дату
func (s *Service) GetSlots(ctx context.Context, providerID int64, date time.Time, appointmentTypeID *int64) ([]domain.Slot, error) {
	s.logger.Info("GetSlots: provider=%d date=%s", providerID, date.Format(domain.DateFormat))

	provider, err := s.getProvider(ctx, "GetSlots", providerID)
	if err != nil {
		return nil, err
	}

	duration, err := s.resolveDuration(ctx, "GetSlots", appointmentTypeID)
	if err != nil {
		return nil, err
	}

	now := s.timeProvider.Now()
	key := cacheKey(providerID, date, duration)
	if slots, ok := s.cacheGet(key); ok {
		return DropPast(slots, now), nil
	}

	slots, err := s.daySlots(ctx, provider, date, duration)
	if err != nil {
		return nil, err
	}
	s.cacheSet(key, slots)

	s.logger.Info("GetSlots: generated %d slots for provider=%d date=%s", len(slots), providerID, date.Format(domain.DateFormat))
	return DropPast(slots, now), nil
}

// ForecastNextAvailable ищет ближайший свободный слот врача в окне [from, from+ForecastDays] включительно
// Возвращает ErrNoAvailability, если окно исчерпано
func (s *Service) ForecastNextAvailable(ctx context.Context, providerID int64, from time.Time, appointmentTypeID *int64) (*domain.Forecast, error) {
	s.logger.Info("ForecastNextAvailable: provider=%d from=%s", providerID, from.Format(domain.DateFormat))

	provider, err := s.getProvider(ctx, "ForecastNextAvailable", providerID)
	if err != nil {
		return nil, err
	}

	duration, err := s.resolveDuration(ctx, "ForecastNextAvailable", appointmentTypeID)
	if err != nil {
		return nil, err
	}

	to := from.AddDate(0, 0, s.forecastDays)
	schedules, err := s.scheduleRepo.ListByProviderAndRange(ctx, providerID, from, to)
	if err != nil {
		s.logger.Error("ForecastNextAvailable: failed to list schedules for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: ForecastNextAvailable - list schedules: %v", ErrInternal, err)
	}

	windowStart, _ := dayBounds(from, s.loc)
	_, windowEnd := dayBounds(to, s.loc)
	appointments, err := s.listActive(ctx, providerID, windowStart, windowEnd, provider.BookingBufferMinutes)
	if err != nil {
		s.logger.Error("ForecastNextAvailable: failed to list appointments for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: ForecastNextAvailable - list appointments: %v", ErrInternal, err)
	}

	now := s.timeProvider.Now()
	for _, schedule := range schedules {
		if !schedule.IsAvailable {
			continue
		}

		slots, err := GenerateSlots(schedule, provider.BookingBufferMinutes, appointments, duration, s.loc)
		if err != nil {
			s.logger.Warn("ForecastNextAvailable: skipping malformed schedule id=%d: %v", schedule.ID, err)
			continue
		}

		slots = DropPast(slots, now)
		if len(slots) == 0 {
			continue
		}

		s.logger.Info("ForecastNextAvailable: provider=%d next slot %s", providerID, slots[0].DateTime())
		return &domain.Forecast{
			ProviderID: providerID,
			Date:       schedule.Date,
			Slot:       slots[0],
		}, nil
	}

	s.logger.Info("ForecastNextAvailable: no availability for provider=%d in %d days", providerID, s.forecastDays)
	return nil, ErrNoAvailability
}

// Invalidate сбрасывает кэш слотов врача на дату
// Вызывается при любом изменении приемов или расписания
func (s *Service) Invalidate(providerID int64, date time.Time) {
	if s.cache == nil {
		return
	}
	removed := s.cache.DeletePrefix(cacheDatePrefix(providerID, date))
	s.logger.Info("Invalidate: provider=%d date=%s removed=%d", providerID, date.Format(domain.DateFormat), removed)
}

// InvalidateAt сбрасывает кэш для даты, на которую приходится момент времени
func (s *Service) InvalidateAt(providerID int64, at time.Time) {
	s.Invalidate(providerID, at.In(s.loc))
}

// daySlots генерирует все слоты дня без учета текущего времени
func (s *Service) daySlots(ctx context.Context, provider *domain.Provider, date time.Time, duration int) ([]domain.Slot, error) {
	schedule, err := s.scheduleRepo.GetByProviderAndDate(ctx, provider.ID, date)
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			s.logger.Info("GetSlots: no schedule for provider=%d date=%s", provider.ID, date.Format(domain.DateFormat))
			return []domain.Slot{}, nil
		}
		s.logger.Error("GetSlots: failed to get schedule for provider=%d: %v", provider.ID, err)
		return nil, fmt.Errorf("%w: GetSlots - get schedule: %v", ErrInternal, err)
	}
	if !schedule.IsAvailable {
		return []domain.Slot{}, nil
	}

	from, to := dayBounds(date, s.loc)
	appointments, err := s.listActive(ctx, provider.ID, from, to, provider.BookingBufferMinutes)
	if err != nil {
		s.logger.Error("GetSlots: failed to list appointments for provider=%d: %v", provider.ID, err)
		return nil, fmt.Errorf("%w: GetSlots - list appointments: %v", ErrInternal, err)
	}

	slots, err := GenerateSlots(schedule, provider.BookingBufferMinutes, appointments, duration, s.loc)
	if err != nil {
		s.logger.Error("GetSlots: failed to generate slots for schedule id=%d: %v", schedule.ID, err)
		return nil, fmt.Errorf("%w: GetSlots - generate slots: %v", ErrInternal, err)
	}
	return slots, nil
}

// listActive возвращает активные приемы, пересекающиеся с окном, расширенным на буфер
func (s *Service) listActive(ctx context.Context, providerID int64, from, to time.Time, bufferMinutes int) ([]*domain.Appointment, error) {
	pad := time.Duration(bufferMinutes) * time.Minute
	from = from.Add(-pad)
	to = to.Add(pad)
	return s.appointmentRepo.List(ctx, domain.AppointmentsFilter{
		ProviderID: &providerID,
		From:       &from,
		To:         &to,
		Statuses:   domain.ActiveStatuses,
	})
}

func (s *Service) getProvider(ctx context.Context, op string, providerID int64) (*domain.Provider, error) {
	if providerID <= 0 {
		return nil, fmt.Errorf("%w: provider id must be positive", ErrInvalidInput)
	}

	provider, err := s.providerRepo.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			s.logger.Warn("%s: provider id=%d not found", op, providerID)
			return nil, ErrProviderNotFound
		}
		s.logger.Error("%s: failed to get provider id=%d: %v", op, providerID, err)
		return nil, fmt.Errorf("%w: %s - get provider: %v", ErrInternal, op, err)
	}
	return provider, nil
}

// resolveDuration длительность типа приема, 0 означает длительность слота из расписания
func (s *Service) resolveDuration(ctx context.Context, op string, appointmentTypeID *int64) (int, error) {
	if appointmentTypeID == nil {
		return 0, nil
	}

	appointmentType, err := s.appointmentTypeRepo.GetByID(ctx, *appointmentTypeID)
	if err != nil {
		if errors.Is(err, appointmentTypeRepo.ErrAppointmentTypeNotFound) {
			s.logger.Warn("%s: appointment type id=%d not found", op, *appointmentTypeID)
			return 0, ErrAppointmentTypeNotFound
		}
		s.logger.Error("%s: failed to get appointment type id=%d: %v", op, *appointmentTypeID, err)
		return 0, fmt.Errorf("%w: %s - get appointment type: %v", ErrInternal, op, err)
	}
	return appointmentType.DurationMinutes, nil
}

func (s *Service) cacheGet(key string) ([]domain.Slot, bool) {
	if s.cache == nil {
		return nil, false
	}
	slots, ok := s.cache.Get(key)
	if s.metrics != nil {
		if ok {
			s.metrics.IncCache(cacheHit)
		} else {
			s.metrics.IncCache(cacheMiss)
		}
	}
	return slots, ok
}

func (s *Service) cacheSet(key string, slots []domain.Slot) {
	if s.cache == nil {
		return
	}
	s.cache.Set(key, slots)
}

func cacheDatePrefix(providerID int64, date time.Time) string {
	return fmt.Sprintf("provider:%d:date:%s:", providerID, date.Format(domain.DateFormat))
}

func cacheKey(providerID int64, date time.Time, duration int) string {
	return fmt.Sprintf("%sduration:%d", cacheDatePrefix(providerID, date), duration)
}

// dayBounds полночь даты и следующая полночь в часовом поясе loc
func dayBounds(date time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
