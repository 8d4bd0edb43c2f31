package rank_options

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentTypeRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointmenttype"
	patientRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/patient"
	"github.com/m04kA/SMC-AppointmentService/internal/service/availability"
	"github.com/m04kA/SMC-AppointmentService/pkg/geo"
)

// Config параметры подбора
type Config struct {
	Location     *time.Location // часовой пояс клиники
	MaxProviders int            // сколько подходящих врачей обрабатывается
}

// UseCase use case подбора и ранжирования вариантов записи
type UseCase struct {
	providerRepo        ProviderRepository
	patientRepo         PatientRepository
	scheduleRepo        ScheduleRepository
	appointmentRepo     AppointmentRepository
	appointmentTypeRepo AppointmentTypeRepository
	timeProvider        TimeProvider
	logger              Logger
	loc                 *time.Location
	maxProviders        int
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	providerRepo ProviderRepository,
	patientRepo PatientRepository,
	scheduleRepo ScheduleRepository,
	appointmentRepo AppointmentRepository,
	appointmentTypeRepo AppointmentTypeRepository,
	timeProvider TimeProvider,
	logger Logger,
	cfg Config,
) *UseCase {
	if timeProvider == nil {
		timeProvider = &RealTimeProvider{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxProviders <= 0 {
		cfg.MaxProviders = domain.DefaultMaxRankedProviders
	}
	return &UseCase{
		providerRepo:        providerRepo,
		patientRepo:         patientRepo,
		scheduleRepo:        scheduleRepo,
		appointmentRepo:     appointmentRepo,
		appointmentTypeRepo: appointmentTypeRepo,
		timeProvider:        timeProvider,
		logger:              logger,
		loc:                 cfg.Location,
		maxProviders:        cfg.MaxProviders,
	}
}

// Execute подбирает варианты записи для пациента
// Каждый свободный слот подходящих врачей в окне дат оценивается, результат отсортирован по убыванию оценки.
// При равной оценке сохраняется порядок перебора: врач, затем дата и время
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RankOptions: patient=%d, limit=%d", req.PatientID, req.Limit)

	// 1. Валидация входных данных
	if err := normalizeRequest(req); err != nil {
		uc.logger.Warn("RankOptions: validation failed: %v", err)
		return nil, err
	}

	now := uc.timeProvider.Now()

	// 2. Пациент
	patient, err := uc.patientRepo.GetByID(ctx, req.PatientID)
	if err != nil {
		if errors.Is(err, patientRepo.ErrPatientNotFound) {
			uc.logger.Warn("RankOptions: patient id=%d not found", req.PatientID)
			return nil, ErrPatientNotFound
		}
		uc.logger.Error("RankOptions: failed to get patient id=%d: %v", req.PatientID, err)
		return nil, fmt.Errorf("%w: failed to get patient: %v", ErrInternal, err)
	}

	// 3. Тип приема по истории пациента
	appointmentType, err := uc.inferAppointmentType(ctx, patient.ID)
	if err != nil {
		return nil, err
	}

	// 4. Подходящие врачи
	providers, err := uc.eligibleProviders(ctx, req, patient)
	if err != nil {
		return nil, err
	}

	// 5. Окно дат: с завтрашнего дня на DateRangeDays вперед
	today := localDate(now, uc.loc)
	from := today.AddDate(0, 0, 1)
	to := from.AddDate(0, 0, req.Filters.DateRangeDays)
	origin, hasOrigin := searchOrigin(req, patient)

	options := make([]Option, 0)
	for _, provider := range providers {
		var distance *float64
		if point, ok := provider.Location(); ok && hasOrigin {
			km := geo.DistanceKm(origin, point)
			distance = &km
		}

		providerOptions, err := uc.providerOptions(ctx, provider, appointmentType, from, to, now)
		if err != nil {
			return nil, err
		}

		for i := range providerOptions {
			opt := &providerOptions[i]
			opt.DistanceKm = distance
			opt.Breakdown = Score(ScoreInput{
				Provider:       provider,
				SlotType:       opt.SlotType,
				DaysFromNow:    int(opt.Date.Sub(today).Hours() / 24),
				DistanceKm:     distance,
				PatientInsurer: patient.PrimaryInsurer,
				Preferences:    req.Preferences,
			})
			opt.Score = opt.Breakdown.Total()
		}
		options = append(options, providerOptions...)
	}

	ranked := Rank(options, req.Limit)
	uc.logger.Info("RankOptions: patient=%d, %d providers, %d candidates, returning %d",
		req.PatientID, len(providers), len(options), len(ranked))
	return &Response{Options: ranked}, nil
}

// Rank сортирует варианты по убыванию оценки, равные сохраняют исходный порядок
func Rank(options []Option, limit int) []Option {
	sort.SliceStable(options, func(i, j int) bool {
		return options[i].Score > options[j].Score
	})
	if limit > 0 && len(options) > limit {
		options = options[:limit]
	}
	return options
}

func (uc *UseCase) inferAppointmentType(ctx context.Context, patientID int64) (*domain.AppointmentType, error) {
	history, err := uc.appointmentRepo.CountHistory(ctx, patientID)
	if err != nil {
		uc.logger.Error("RankOptions: failed to count history for patient=%d: %v", patientID, err)
		return nil, fmt.Errorf("%w: failed to count history: %v", ErrInternal, err)
	}

	name := domain.InferAppointmentTypeName(history.CompletedCount)
	appointmentType, err := uc.appointmentTypeRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, appointmentTypeRepo.ErrAppointmentTypeNotFound) {
			uc.logger.Error("RankOptions: appointment type %q is missing", name)
			return nil, fmt.Errorf("%w: %s", ErrAppointmentTypeNotFound, name)
		}
		uc.logger.Error("RankOptions: failed to get appointment type %q: %v", name, err)
		return nil, fmt.Errorf("%w: failed to get appointment type: %v", ErrInternal, err)
	}
	return appointmentType, nil
}

// eligibleProviders врачи, принимающие новых пациентов, с учетом специализации, страховки,
// рейтинга и радиуса; не больше maxProviders
func (uc *UseCase) eligibleProviders(ctx context.Context, req *Request, patient *domain.Patient) ([]*domain.Provider, error) {
	// без страховки ни один врач не проходит фильтр по страховой
	if patient.PrimaryInsurer == nil {
		uc.logger.Info("RankOptions: patient=%d has no primary insurer, no eligible providers", patient.ID)
		return nil, nil
	}

	filter := domain.ProviderFilter{
		Specialty:     req.Filters.Specialty,
		Insurer:       patient.PrimaryInsurer,
		MinRating:     *req.Filters.MinRating,
		OnlyAccepting: true,
	}
	// Без геофильтра лимит можно отдать в БД
	if req.Filters.Location == nil {
		filter.Limit = uint64(uc.maxProviders)
	}

	providers, err := uc.providerRepo.List(ctx, filter)
	if err != nil {
		uc.logger.Error("RankOptions: failed to list providers: %v", err)
		return nil, fmt.Errorf("%w: failed to list providers: %v", ErrInternal, err)
	}

	result := make([]*domain.Provider, 0, uc.maxProviders)
	for _, p := range providers {
		if req.Filters.Location != nil {
			point, ok := p.Location()
			if !ok || geo.DistanceKm(*req.Filters.Location, point) > *req.Filters.MaxDistanceKm {
				continue
			}
		}
		result = append(result, p)
		if len(result) == uc.maxProviders {
			break
		}
	}
	return result, nil
}

// providerOptions свободные слоты врача в окне дат с оценкой ожидания
func (uc *UseCase) providerOptions(
	ctx context.Context,
	provider *domain.Provider,
	appointmentType *domain.AppointmentType,
	from, to time.Time,
	now time.Time,
) ([]Option, error) {
	schedules, err := uc.scheduleRepo.ListByProviderAndRange(ctx, provider.ID, from, to)
	if err != nil {
		uc.logger.Error("RankOptions: failed to list schedules for provider=%d: %v", provider.ID, err)
		return nil, fmt.Errorf("%w: failed to list schedules: %v", ErrInternal, err)
	}
	if len(schedules) == 0 {
		return nil, nil
	}

	buffer := time.Duration(provider.BookingBufferMinutes) * time.Minute
	windowStart := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, uc.loc).Add(-buffer)
	windowEnd := time.Date(to.Year(), to.Month(), to.Day()+1, 0, 0, 0, 0, uc.loc).Add(buffer)
	appointments, err := uc.appointmentRepo.List(ctx, domain.AppointmentsFilter{
		ProviderID: &provider.ID,
		From:       &windowStart,
		To:         &windowEnd,
		Statuses:   domain.ActiveStatuses,
	})
	if err != nil {
		uc.logger.Error("RankOptions: failed to list appointments for provider=%d: %v", provider.ID, err)
		return nil, fmt.Errorf("%w: failed to list appointments: %v", ErrInternal, err)
	}
	byDate := availability.GroupByLocalDate(appointments, uc.loc)

	options := make([]Option, 0)
	for _, schedule := range schedules {
		if !schedule.IsAvailable {
			continue
		}

		slots, err := availability.GenerateSlots(schedule, provider.BookingBufferMinutes, appointments, appointmentType.DurationMinutes, uc.loc)
		if err != nil {
			uc.logger.Warn("RankOptions: skipping malformed schedule id=%d: %v", schedule.ID, err)
			continue
		}
		slots = availability.DropPast(slots, now)

		wait := EstimateWaitMinutes(len(byDate[schedule.Date.Format(domain.DateFormat)]))
		for _, slot := range slots {
			options = append(options, Option{
				ProviderID:           provider.ID,
				ProviderName:         provider.FirstName + " " + provider.LastName,
				ScheduledAt:          slot.StartsAt,
				Date:                 localDate(slot.StartsAt, uc.loc),
				Time:                 slot.Time,
				SlotType:             slot.SlotType,
				AppointmentTypeID:    appointmentType.ID,
				AppointmentTypeName:  appointmentType.Name,
				DurationMinutes:      appointmentType.DurationMinutes,
				EstimatedWaitMinutes: wait,
			})
		}
	}
	return options, nil
}

// searchOrigin точка поиска: из фильтра, иначе адрес пациента
func searchOrigin(req *Request, patient *domain.Patient) (geo.Point, bool) {
	if req.Filters.Location != nil {
		return *req.Filters.Location, true
	}
	return patient.Location()
}

// localDate календарная дата момента в часовом поясе клиники
func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
