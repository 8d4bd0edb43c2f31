package appointments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/audit"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/scheduler"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

const (
	cancelledByPatient  = "patient"
	cancelledByProvider = "provider"
)

// Config параметры жизненного цикла приема
type Config struct {
	Location           *time.Location
	CancellationNotice time.Duration   // отмена разрешена не позднее чем за это время до начала
	ReminderOffsets    []time.Duration // напоминания относительно начала приема
}

// Service жизненный цикл приема: переходы статусов, напоминания, чтение
type Service struct {
	appointmentRepo AppointmentRepository
	txManager       TransactionManager
	scheduler       Scheduler
	notifier        Notifier
	publisher       EventPublisher
	availability    AvailabilityInvalidator
	waitlist        WaitlistCascade
	audit           AuditRecorder
	metrics         Metrics
	timeProvider    TimeProvider
	logger          Logger
	loc             *time.Location
	notice          time.Duration
	reminderOffsets []time.Duration

	mu        sync.Mutex
	reminders map[int64][]scheduler.Handle // appointmentID -> таймеры напоминаний
}

// NewService создает новый экземпляр сервиса приемов
func NewService(
	appointmentRepo AppointmentRepository,
	txManager TransactionManager,
	timers Scheduler,
	notifier Notifier,
	publisher EventPublisher,
	availability AvailabilityInvalidator,
	waitlist WaitlistCascade,
	auditRecorder AuditRecorder,
	metrics Metrics,
	timeProvider TimeProvider,
	logger Logger,
	cfg Config,
) *Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CancellationNotice <= 0 {
		cfg.CancellationNotice = domain.DefaultCancellationNotice
	}
	return &Service{
		appointmentRepo: appointmentRepo,
		txManager:       txManager,
		scheduler:       timers,
		notifier:        notifier,
		publisher:       publisher,
		availability:    availability,
		waitlist:        waitlist,
		audit:           auditRecorder,
		metrics:         metrics,
		timeProvider:    timeProvider,
		logger:          logger,
		loc:             cfg.Location,
		notice:          cfg.CancellationNotice,
		reminderOffsets: cfg.ReminderOffsets,
		reminders:       make(map[int64][]scheduler.Handle),
	}
}

// GetByID получает прием по ID
// Прием видят только его участники: пациент и врач
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.AppointmentResponse, error) {
	s.logger.Info("GetByID: fetching appointment id=%d for user=%d", id, userID)

	appointment, err := s.getAppointment(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}

	if !appointment.IsParticipant(userID) {
		s.logger.Warn("GetByID: access denied for user=%d to appointment id=%d", userID, id)
		return nil, ErrAccessDenied
	}

	s.record(ctx, audit.Entry{UserID: userID, PatientID: appointment.PatientID, ResourceID: id, Action: audit.ActionRead})

	s.logger.Info("GetByID: successfully fetched appointment id=%d", id)
	return models.FromDomainAppointment(appointment), nil
}

// ListPatientAppointments история приемов пациента, опционально по статусу
func (s *Service) ListPatientAppointments(ctx context.Context, req *models.GetPatientAppointmentsRequest) (*models.AppointmentListResponse, error) {
	s.logger.Info("ListPatientAppointments: patient=%d, user=%d, status=%v", req.PatientID, req.UserID, req.Status)

	if req.UserID != req.PatientID {
		s.logger.Warn("ListPatientAppointments: user=%d cannot read appointments of patient=%d", req.UserID, req.PatientID)
		return nil, ErrAccessDenied
	}

	patientID := req.PatientID
	filter := domain.AppointmentsFilter{PatientID: &patientID}
	if req.Status != nil {
		status, err := models.ToDomainAppointmentStatus(*req.Status)
		if err != nil {
			s.logger.Warn("ListPatientAppointments: invalid status=%s", *req.Status)
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		filter.Statuses = []domain.AppointmentStatus{status}
	}

	appointments, err := s.appointmentRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListPatientAppointments: repository error for patient=%d: %v", req.PatientID, err)
		return nil, fmt.Errorf("%w: ListPatientAppointments - repository error: %v", ErrInternal, err)
	}

	s.record(ctx, audit.Entry{UserID: req.UserID, PatientID: req.PatientID, Action: audit.ActionSearch})

	s.logger.Info("ListPatientAppointments: fetched %d appointments for patient=%d", len(appointments), req.PatientID)
	return models.FromDomainAppointmentList(appointments), nil
}

// ListProviderAppointments приемы врача за период, доступно только самому врачу
func (s *Service) ListProviderAppointments(ctx context.Context, req *models.GetProviderAppointmentsRequest) (*models.AppointmentListResponse, error) {
	logMsg := fmt.Sprintf("ListProviderAppointments: provider=%d, user=%d", req.ProviderID, req.UserID)
	if req.StartDate != nil && req.EndDate != nil {
		logMsg += fmt.Sprintf(", period=%s to %s", req.StartDate.Format(domain.DateFormat), req.EndDate.Format(domain.DateFormat))
	}
	if req.Status != nil {
		logMsg += fmt.Sprintf(", status=%s", *req.Status)
	}
	s.logger.Info(logMsg)

	if req.UserID != req.ProviderID {
		s.logger.Warn("ListProviderAppointments: user=%d cannot read appointments of provider=%d", req.UserID, req.ProviderID)
		return nil, ErrAccessDenied
	}
	if req.StartDate != nil && req.EndDate != nil && !req.EndDate.After(*req.StartDate) {
		return nil, fmt.Errorf("%w: end date must be after start date", ErrInvalidInput)
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListProviderAppointments: invalid filter for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	appointments, err := s.appointmentRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("ListProviderAppointments: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: ListProviderAppointments - repository error: %v", ErrInternal, err)
	}

	for _, patientID := range distinctPatients(appointments) {
		s.record(ctx, audit.Entry{UserID: req.UserID, PatientID: patientID, Action: audit.ActionSearch})
	}

	s.logger.Info("ListProviderAppointments: fetched %d appointments for provider=%d", len(appointments), req.ProviderID)
	return models.FromDomainAppointmentList(appointments), nil
}

// Transition применяет событие жизненного цикла к приему
// Для отмены сначала проверяется правило уведомления, затем таблица переходов.
// Статус меняется условным обновлением: если прием изменили параллельно, возвращается ErrInvalidTransition.
// Уведомления, события, напоминания и лист ожидания обрабатываются после коммита
// и не откатывают переход при ошибке.
func (s *Service) Transition(ctx context.Context, appointmentID int64, req *models.TransitionRequest) (*models.AppointmentResponse, error) {
	s.logger.Info("Transition: appointment id=%d event=%s by user=%d", appointmentID, req.Event, req.UserID)

	event, err := req.ToDomainEvent()
	if err != nil {
		s.logger.Warn("Transition: invalid event=%s", req.Event)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.CancellationReason != nil && len(*req.CancellationReason) > domain.MaxReasonLength {
		return nil, fmt.Errorf("%w: cancellation reason too long", ErrInvalidInput)
	}

	now := s.timeProvider.Now()
	var updated *domain.Appointment

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		appointment, err := s.getAppointment(ctx, "Transition", appointmentID)
		if err != nil {
			return err
		}

		if !appointment.IsParticipant(req.UserID) {
			s.logger.Warn("Transition: access denied for user=%d to appointment id=%d", req.UserID, appointmentID)
			return ErrAccessDenied
		}

		if event == domain.EventCancel {
			if err := appointment.CheckCancellationPolicy(now, s.notice); err != nil {
				return fmt.Errorf("%w: %v", ErrPolicyViolation, err)
			}
		}

		next, err := domain.NextAppointmentStatus(appointment.Status, event)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}

		params := appointmentRepo.TransitionParams{
			ID:   appointment.ID,
			From: appointment.Status,
			To:   next,
			At:   now,
		}
		if event == domain.EventCancel {
			cancelledBy := cancelledByPatient
			if req.UserID != appointment.PatientID {
				cancelledBy = cancelledByProvider
			}
			params.CancelledBy = &cancelledBy
			params.CancellationReason = req.CancellationReason
		}

		if err := s.appointmentRepo.TransitionStatus(ctx, params); err != nil {
			if errors.Is(err, appointmentRepo.ErrStatusConflict) {
				return s.lostRace(ctx, appointment.ID, event)
			}
			return fmt.Errorf("%w: Transition - update status: %w", ErrInternal, err)
		}

		applyTransition(appointment, params)
		updated = appointment
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInternal):
			s.logger.Error("Transition: appointment id=%d event=%s: %v", appointmentID, event, err)
		default:
			s.logger.Warn("Transition: appointment id=%d event=%s rejected: %v", appointmentID, event, err)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.IncAppointmentTransition(string(event))
	}
	s.publish(ctx, "Transition", domain.NewAppointmentEvent(updated, now))

	switch event {
	case domain.EventConfirm:
		s.send(ctx, "Transition", notification.NewMessage(
			updated.PatientID,
			notification.ChannelEmail,
			notification.KindAppointmentConfirmed,
			fmt.Sprintf("Your appointment on %s is confirmed. Confirmation number %s.",
				updated.ScheduledAt.In(s.loc).Format("2006-01-02 15:04"), updated.ConfirmationNumber),
			now,
		).WithParams(map[string]string{"appointment_id": fmt.Sprint(updated.ID)}))
		s.scheduleReminders(updated, now)

	case domain.EventCancel:
		s.cancelReminders(updated.ID)
		if s.availability != nil {
			s.availability.InvalidateAt(updated.ProviderID, updated.ScheduledAt)
		}
		s.publish(ctx, "Transition", domain.NewAvailabilityEvent(updated.ProviderID, updated.ScheduledAt.In(s.loc), now))
		s.send(ctx, "Transition", notification.NewMessage(
			updated.PatientID,
			notification.ChannelEmail,
			notification.KindAppointmentCancelled,
			fmt.Sprintf("Your appointment on %s has been cancelled.",
				updated.ScheduledAt.In(s.loc).Format("2006-01-02 15:04")),
			now,
		).WithParams(map[string]string{"appointment_id": fmt.Sprint(updated.ID)}))
		s.cascade(ctx, updated.ID)

	case domain.EventComplete, domain.EventMarkNoShow:
		s.cancelReminders(updated.ID)
	}

	s.logger.Info("Transition: appointment id=%d is now %s", updated.ID, updated.Status)
	return models.FromDomainAppointment(updated), nil
}

// UpdateDetails меняет причину визита и заметки активного приема
// Менять их может только пациент приема. nil поле остается без изменений.
func (s *Service) UpdateDetails(ctx context.Context, appointmentID int64, req *models.UpdateDetailsRequest) (*models.AppointmentResponse, error) {
	s.logger.Info("UpdateDetails: appointment id=%d by user=%d", appointmentID, req.UserID)

	fields := make([]string, 0, 2)
	if req.ReasonForVisit != nil {
		if len(*req.ReasonForVisit) > domain.MaxReasonLength {
			return nil, fmt.Errorf("%w: reason for visit too long", ErrInvalidInput)
		}
		fields = append(fields, "reason_for_visit")
	}
	if req.Notes != nil {
		if len(*req.Notes) > domain.MaxNotesLength {
			return nil, fmt.Errorf("%w: notes too long", ErrInvalidInput)
		}
		fields = append(fields, "notes")
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidInput)
	}

	now := s.timeProvider.Now()
	var updated *domain.Appointment

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		appointment, err := s.getAppointment(ctx, "UpdateDetails", appointmentID)
		if err != nil {
			return err
		}

		if appointment.PatientID != req.UserID {
			s.logger.Warn("UpdateDetails: access denied for user=%d to appointment id=%d", req.UserID, appointmentID)
			return ErrAccessDenied
		}
		if !appointment.IsActive() {
			return fmt.Errorf("%w: appointment id=%d is %s", ErrInvalidTransition, appointmentID, appointment.Status)
		}

		err = s.appointmentRepo.UpdateDetails(ctx, appointmentRepo.UpdateDetailsParams{
			ID:             appointment.ID,
			ReasonForVisit: req.ReasonForVisit,
			Notes:          req.Notes,
			At:             now,
		})
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrStatusConflict) {
				return fmt.Errorf("%w: appointment id=%d changed concurrently", ErrInvalidTransition, appointmentID)
			}
			return fmt.Errorf("%w: UpdateDetails - update appointment: %w", ErrInternal, err)
		}

		if req.ReasonForVisit != nil {
			appointment.ReasonForVisit = req.ReasonForVisit
		}
		if req.Notes != nil {
			appointment.Notes = req.Notes
		}
		appointment.UpdatedAt = now
		updated = appointment
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInternal) {
			s.logger.Error("UpdateDetails: appointment id=%d: %v", appointmentID, err)
		} else {
			s.logger.Warn("UpdateDetails: appointment id=%d rejected: %v", appointmentID, err)
		}
		return nil, err
	}

	s.record(ctx, audit.Entry{
		UserID:     req.UserID,
		PatientID:  updated.PatientID,
		ResourceID: updated.ID,
		Action:     audit.ActionUpdate,
		Fields:     fields,
	})
	s.publish(ctx, "UpdateDetails", domain.NewAppointmentEvent(updated, now))

	s.logger.Info("UpdateDetails: appointment id=%d updated %v", updated.ID, fields)
	return models.FromDomainAppointment(updated), nil
}

// lostRace перечитывает прием после неудачного условного обновления
func (s *Service) lostRace(ctx context.Context, id int64, event domain.AppointmentEvent) error {
	current, err := s.getAppointment(ctx, "Transition", id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: appointment id=%d changed concurrently, now %s, cannot %s",
		ErrInvalidTransition, id, current.Status, event)
}

// applyTransition повторяет в памяти то, что записал TransitionStatus
func applyTransition(a *domain.Appointment, p appointmentRepo.TransitionParams) {
	a.Status = p.To
	a.UpdatedAt = p.At
	at := p.At
	switch p.To {
	case domain.StatusConfirmed:
		a.ConfirmedAt = &at
	case domain.StatusCompleted:
		a.CompletedAt = &at
	case domain.StatusCancelled:
		a.CancelledAt = &at
		a.CancellationReason = p.CancellationReason
		a.CancelledBy = p.CancelledBy
	}
}

// cascade предлагает отмененный прием листу ожидания, ошибки только логируются
func (s *Service) cascade(ctx context.Context, appointmentID int64) {
	if s.waitlist == nil {
		return
	}
	entry, err := s.waitlist.NotifyNext(ctx, appointmentID)
	if err != nil {
		s.logger.Warn("Transition: waitlist cascade for appointment id=%d: %v", appointmentID, err)
		return
	}
	if entry != nil {
		s.logger.Info("Transition: appointment id=%d offered to waitlist entry id=%d", appointmentID, entry.ID)
	}
}

func (s *Service) getAppointment(ctx context.Context, op string, id int64) (*domain.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("%s: appointment id=%d not found", op, id)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("%s: repository error for appointment id=%d: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - get appointment: %w", ErrInternal, op, err)
	}
	return appointment, nil
}

const auditResource = "appointment"

func (s *Service) record(ctx context.Context, e audit.Entry) {
	if s.audit == nil {
		return
	}
	e.Resource = auditResource
	e.At = s.timeProvider.Now()
	s.audit.Record(ctx, e)
}

func distinctPatients(list []*domain.Appointment) []int64 {
	seen := make(map[int64]struct{}, len(list))
	result := make([]int64, 0, len(list))
	for _, a := range list {
		if _, ok := seen[a.PatientID]; ok {
			continue
		}
		seen[a.PatientID] = struct{}{}
		result = append(result, a.PatientID)
	}
	return result
}

func (s *Service) publish(ctx context.Context, op string, event domain.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("%s: failed to publish %s: %v", op, event.Type, err)
	}
}

func (s *Service) send(ctx context.Context, op string, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("%s: failed to enqueue %s for patient=%d: %v", op, msg.Kind, msg.PatientID, err)
	}
}
