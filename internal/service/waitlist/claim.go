package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	waitlistRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/waitlist"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
	"github.com/m04kA/SMC-AppointmentService/internal/service/availability"
)

const (
	claimWon  = "won"
	claimLost = "lost"
)

// NotifyNext предлагает освободившийся прием первому претенденту из листа ожидания
// Претенденты: active записи того же врача и типа приема, чей диапазон дат и части дня покрывают слот,
// по убыванию приоритета, затем FIFO. Уведомляется только один претендент.
// Если действующее предложение по приему уже есть, возвращается оно.
// Возвращает nil без ошибки, если претендентов нет.
func (s *Service) NotifyNext(ctx context.Context, appointmentID int64) (*domain.WaitlistEntry, error) {
	s.logger.Info("NotifyNext: appointment id=%d", appointmentID)

	now := s.timeProvider.Now()
	var notified *domain.WaitlistEntry
	var fresh bool

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		notified, fresh = nil, false

		appointment, err := s.appointmentRepo.GetByID(ctx, appointmentID)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				return ErrAppointmentNotFound
			}
			return fmt.Errorf("%w: NotifyNext - get appointment: %w", ErrInternal, err)
		}
		if appointment.Status != domain.StatusCancelled || !appointment.ScheduledAt.After(now) {
			return fmt.Errorf("%w: appointment id=%d status=%s", ErrSlotNotFree, appointment.ID, appointment.Status)
		}
		if err := s.checkSlotConflicts(ctx, appointment, nil); err != nil {
			if errors.Is(err, ErrClaimConflict) {
				return fmt.Errorf("%w: %v", ErrSlotNotFree, err)
			}
			return err
		}

		outstanding, err := s.waitlistRepo.GetOutstandingOffer(ctx, appointmentID)
		if err == nil {
			notified = outstanding
			return nil
		}
		if !errors.Is(err, waitlistRepo.ErrEntryNotFound) {
			return fmt.Errorf("%w: NotifyNext - get outstanding offer: %w", ErrInternal, err)
		}

		slot := domain.NewFreedSlot(appointment, s.loc)
		candidates, err := s.waitlistRepo.ListCandidates(ctx, domain.WaitlistCandidatesFilter{
			ProviderID:        slot.ProviderID,
			AppointmentTypeID: slot.AppointmentTypeID,
			Date:              slot.ScheduledAt,
			SlotType:          slot.SlotType,
			Statuses:          []domain.WaitlistStatus{domain.WaitlistActive},
		})
		if err != nil {
			return fmt.Errorf("%w: NotifyNext - list candidates: %w", ErrInternal, err)
		}

		expiresAt := now.Add(s.claimWindow)
		for _, candidate := range candidates {
			if candidate.Status != domain.WaitlistActive || !candidate.Matches(slot) {
				continue
			}

			err := s.waitlistRepo.MarkNotified(ctx, candidate.ID, candidate.Version, appointmentID, now, expiresAt)
			if errors.Is(err, waitlistRepo.ErrVersionConflict) {
				s.logger.Info("NotifyNext: candidate id=%d changed concurrently, trying next", candidate.ID)
				continue
			}
			if err != nil {
				return fmt.Errorf("%w: NotifyNext - mark notified: %w", ErrInternal, err)
			}

			candidate.Status = domain.WaitlistNotified
			candidate.NotifiedAt = &now
			candidate.ExpiresAt = &expiresAt
			candidate.OfferedAppointmentID = &appointmentID
			candidate.Version++
			candidate.UpdatedAt = now
			notified, fresh = candidate, true
			return nil
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) || errors.Is(err, domain.ErrNotFound) {
			s.logger.Info("NotifyNext: nothing to offer for appointment id=%d: %v", appointmentID, err)
		} else {
			s.logger.Error("NotifyNext: failed for appointment id=%d: %v", appointmentID, err)
		}
		return nil, err
	}

	if notified == nil {
		s.logger.Info("NotifyNext: no waitlist candidates for appointment id=%d", appointmentID)
		return nil, nil
	}
	if !fresh {
		s.logger.Info("NotifyNext: appointment id=%d already offered to entry id=%d", appointmentID, notified.ID)
		return notified, nil
	}

	s.armTimer(notified)
	if s.metrics != nil {
		s.metrics.IncWaitlistNotification()
	}
	s.send(ctx, "NotifyNext", notification.NewMessage(
		notified.PatientID,
		notification.ChannelSMS,
		notification.KindWaitlistOffer,
		fmt.Sprintf("A slot has opened up. Reply within %d minutes to claim it.", int(s.claimWindow/time.Minute)),
		now,
	).WithParams(map[string]string{
		"entry_id":       fmt.Sprint(notified.ID),
		"appointment_id": fmt.Sprint(appointmentID),
		"expires_at":     notified.ExpiresAt.Format(time.RFC3339),
	}))
	s.publish(ctx, "NotifyNext", domain.NewWaitlistEvent(notified, now))

	s.logger.Info("NotifyNext: entry id=%d notified for appointment id=%d, expires at %s",
		notified.ID, appointmentID, notified.ExpiresAt.Format(time.RFC3339))
	return notified, nil
}

// AttemptClaim подтверждает предложение пациентом
// Успешно, только если запись в статусе notified и окно подтверждения не истекло.
// Прием не должен пересекаться с активными приемами врача (с учетом буфера) и самого пациента.
// За одну транзакцию прием передается пациенту и подтверждается, запись переходит в claimed,
// остальные претенденты на этот слот переводятся в expired. Предложения по другим приемам сохраняются.
// После подтверждения ставятся напоминания о приеме.
// Из N параллельных попыток успешна ровно одна, остальные получают ErrClaimRejected.
func (s *Service) AttemptClaim(ctx context.Context, entryID, patientID int64) (*domain.Appointment, error) {
	s.logger.Info("AttemptClaim: entry id=%d by patient=%d", entryID, patientID)

	now := s.timeProvider.Now()
	var claimed *domain.WaitlistEntry
	var appointment *domain.Appointment
	var competitors []int64

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		entry, err := s.getEntry(ctx, "AttemptClaim", entryID)
		if err != nil {
			return err
		}
		if entry.PatientID != patientID {
			s.logger.Warn("AttemptClaim: patient=%d is not owner of entry id=%d", patientID, entryID)
			return ErrAccessDenied
		}
		if !entry.CanClaim(now) || entry.OfferedAppointmentID == nil {
			return fmt.Errorf("%w: entry id=%d status=%s", ErrClaimRejected, entry.ID, entry.Status)
		}

		next, err := domain.NextWaitlistStatus(entry.Status, domain.WaitlistEventClaim)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrClaimRejected, err)
		}

		appointmentID := *entry.OfferedAppointmentID
		offered, err := s.appointmentRepo.GetByID(ctx, appointmentID)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				return fmt.Errorf("%w: appointment id=%d is gone", ErrClaimRejected, appointmentID)
			}
			return fmt.Errorf("%w: AttemptClaim - get appointment: %w", ErrInternal, err)
		}
		if offered.Status != domain.StatusCancelled {
			return fmt.Errorf("%w: appointment id=%d is no longer free", ErrClaimRejected, appointmentID)
		}
		if err := s.checkSlotConflicts(ctx, offered, &entry.PatientID); err != nil {
			return err
		}

		if err := s.waitlistRepo.CompareAndSetStatus(ctx, entry.ID, entry.Version, entry.Status, next, now); err != nil {
			if errors.Is(err, waitlistRepo.ErrVersionConflict) {
				return fmt.Errorf("%w: entry id=%d claimed concurrently", ErrClaimRejected, entry.ID)
			}
			return fmt.Errorf("%w: AttemptClaim - update status: %w", ErrInternal, err)
		}

		if err := s.appointmentRepo.Reassign(ctx, appointmentID, entry.PatientID, now); err != nil {
			if errors.Is(err, appointmentRepo.ErrStatusConflict) || errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
				return fmt.Errorf("%w: appointment id=%d is no longer free", ErrClaimRejected, appointmentID)
			}
			return fmt.Errorf("%w: AttemptClaim - reassign appointment: %w", ErrInternal, err)
		}

		appointment, err = s.appointmentRepo.GetByID(ctx, appointmentID)
		if err != nil {
			return fmt.Errorf("%w: AttemptClaim - reload appointment: %w", ErrInternal, err)
		}

		slot := domain.NewFreedSlot(appointment, s.loc)
		competitors, err = s.waitlistRepo.ExpireCompetitors(ctx, domain.WaitlistCandidatesFilter{
			ProviderID:           slot.ProviderID,
			AppointmentTypeID:    slot.AppointmentTypeID,
			Date:                 slot.ScheduledAt,
			SlotType:             slot.SlotType,
			Statuses:             []domain.WaitlistStatus{domain.WaitlistActive, domain.WaitlistNotified},
			ExcludeID:            &entry.ID,
			OfferedAppointmentID: &appointmentID,
		}, now)
		if err != nil {
			return fmt.Errorf("%w: AttemptClaim - expire competitors: %w", ErrInternal, err)
		}

		entry.Status = next
		entry.Version++
		entry.UpdatedAt = now
		claimed = entry
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotUnavailable) || errors.Is(err, domain.ErrSchedulingConflict) {
			s.logger.Info("AttemptClaim: entry id=%d lost: %v", entryID, err)
			if s.metrics != nil {
				s.metrics.IncWaitlistClaim(claimLost)
			}
		} else {
			s.logger.Warn("AttemptClaim: entry id=%d failed: %v", entryID, err)
		}
		return nil, err
	}

	s.cancelTimer(claimed.ID)
	for _, id := range competitors {
		s.cancelTimer(id)
	}

	if s.metrics != nil {
		s.metrics.IncWaitlistClaim(claimWon)
	}
	if s.availability != nil {
		s.availability.InvalidateAt(appointment.ProviderID, appointment.ScheduledAt)
	}
	if s.reminders != nil {
		s.reminders.ScheduleReminders(appointment)
	}

	s.send(ctx, "AttemptClaim", notification.NewMessage(
		claimed.PatientID,
		notification.ChannelSMS,
		notification.KindWaitlistClaimed,
		fmt.Sprintf("Your appointment on %s is confirmed. Confirmation number %s.",
			appointment.ScheduledAt.In(s.loc).Format("2006-01-02 15:04"), appointment.ConfirmationNumber),
		now,
	).WithParams(map[string]string{
		"appointment_id": fmt.Sprint(appointment.ID),
	}))
	s.publish(ctx, "AttemptClaim", domain.NewWaitlistEvent(claimed, now))
	s.publish(ctx, "AttemptClaim", domain.NewAppointmentEvent(appointment, now))
	s.publish(ctx, "AttemptClaim", domain.NewAvailabilityEvent(appointment.ProviderID, appointment.ScheduledAt.In(s.loc), now))

	s.logger.Info("AttemptClaim: entry id=%d claimed appointment id=%d, %d competitors expired",
		claimed.ID, appointment.ID, len(competitors))
	return appointment, nil
}

// HandleExpiration обработчик таймера окна подтверждения
// Если запись все еще notified, она переводится в expired и слот предлагается следующему претенденту.
// Если запись уже подтверждена или отменена, вызов ничего не делает.
func (s *Service) HandleExpiration(ctx context.Context, entryID int64) error {
	s.forgetTimer(entryID)

	now := s.timeProvider.Now()
	var expired *domain.WaitlistEntry
	var rearm bool

	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		expired, rearm = nil, false

		entry, err := s.getEntry(ctx, "HandleExpiration", entryID)
		if err != nil {
			return err
		}
		if entry.Status != domain.WaitlistNotified {
			return nil
		}
		if entry.ExpiresAt != nil && now.Before(*entry.ExpiresAt) {
			expired, rearm = entry, true
			return nil
		}

		next, err := domain.NextWaitlistStatus(entry.Status, domain.WaitlistEventExpire)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
		}

		if err := s.waitlistRepo.CompareAndSetStatus(ctx, entry.ID, entry.Version, entry.Status, next, now); err != nil {
			if errors.Is(err, waitlistRepo.ErrVersionConflict) {
				return nil
			}
			return fmt.Errorf("%w: HandleExpiration - update status: %w", ErrInternal, err)
		}

		entry.Status = next
		entry.Version++
		entry.UpdatedAt = now
		expired = entry
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn("HandleExpiration: entry id=%d disappeared", entryID)
			return nil
		}
		s.logger.Error("HandleExpiration: entry id=%d: %v", entryID, err)
		return err
	}

	if expired == nil {
		s.logger.Info("HandleExpiration: entry id=%d is no longer notified, nothing to do", entryID)
		return nil
	}
	if rearm {
		s.logger.Info("HandleExpiration: entry id=%d fired early, rescheduling", entryID)
		s.armTimer(expired)
		return nil
	}

	if s.metrics != nil {
		s.metrics.IncWaitlistExpiration()
	}
	s.publish(ctx, "HandleExpiration", domain.NewWaitlistEvent(expired, now))
	s.logger.Info("HandleExpiration: entry id=%d expired", entryID)

	if expired.OfferedAppointmentID != nil {
		s.cascade(ctx, "HandleExpiration", *expired.OfferedAppointmentID)
	}
	return nil
}

// RestorePendingExpirations заново ставит таймеры для действующих предложений после перезапуска
// Просроченные предложения обрабатываются сразу
func (s *Service) RestorePendingExpirations(ctx context.Context) (int, error) {
	entries, err := s.waitlistRepo.ListNotified(ctx)
	if err != nil {
		s.logger.Error("RestorePendingExpirations: failed to list notified entries: %v", err)
		return 0, fmt.Errorf("%w: RestorePendingExpirations - list notified: %v", ErrInternal, err)
	}

	for _, entry := range entries {
		s.armTimer(entry)
	}

	s.logger.Info("RestorePendingExpirations: restored %d timers", len(entries))
	return len(entries), nil
}

// checkSlotConflicts проверяет, что время приема не занято другим активным приемом врача с учетом буфера
// Если задан patientID, проверяется и то, что у пациента нет пересекающегося активного приема
func (s *Service) checkSlotConflicts(ctx context.Context, a *domain.Appointment, patientID *int64) error {
	provider, err := s.providerRepo.GetByID(ctx, a.ProviderID)
	if err != nil {
		return fmt.Errorf("%w: get provider id=%d: %w", ErrInternal, a.ProviderID, err)
	}

	interval := a.Interval()
	buffer := time.Duration(provider.BookingBufferMinutes) * time.Minute
	from := interval.Start.Add(-buffer)
	to := interval.End.Add(buffer)
	booked, err := s.appointmentRepo.List(ctx, domain.AppointmentsFilter{
		ProviderID: &a.ProviderID,
		From:       &from,
		To:         &to,
		Statuses:   domain.ActiveStatuses,
	})
	if err != nil {
		return fmt.Errorf("%w: list provider appointments: %w", ErrInternal, err)
	}
	booked = withoutAppointment(booked, a.ID)
	if availability.HasOverlap(interval, booked) {
		return fmt.Errorf("%w: provider id=%d is booked at %s", ErrClaimConflict, a.ProviderID, a.ScheduledAt.Format(time.RFC3339))
	}
	if availability.ViolatesBuffer(interval.Start, provider.BookingBufferMinutes, booked) {
		return fmt.Errorf("%w: provider id=%d has an appointment within %d minutes",
			ErrClaimConflict, a.ProviderID, provider.BookingBufferMinutes)
	}

	if patientID == nil {
		return nil
	}
	own, err := s.appointmentRepo.List(ctx, domain.AppointmentsFilter{
		PatientID: patientID,
		From:      &interval.Start,
		To:        &interval.End,
		Statuses:  domain.ActiveStatuses,
	})
	if err != nil {
		return fmt.Errorf("%w: list patient appointments: %w", ErrInternal, err)
	}
	own = withoutAppointment(own, a.ID)
	if len(own) > 0 {
		return fmt.Errorf("%w: patient=%d already has appointment id=%d at this time", ErrClaimConflict, *patientID, own[0].ID)
	}
	return nil
}

func withoutAppointment(list []*domain.Appointment, id int64) []*domain.Appointment {
	result := make([]*domain.Appointment, 0, len(list))
	for _, a := range list {
		if a.ID != id {
			result = append(result, a)
		}
	}
	return result
}

// cascade предлагает слот следующему претенденту, ошибки только логируются
func (s *Service) cascade(ctx context.Context, op string, appointmentID int64) {
	next, err := s.NotifyNext(ctx, appointmentID)
	if err != nil {
		s.logger.Warn("%s: cascade for appointment id=%d stopped: %v", op, appointmentID, err)
		return
	}
	if next == nil {
		s.logger.Info("%s: cascade for appointment id=%d found no candidates", op, appointmentID)
	}
}

func (s *Service) armTimer(entry *domain.WaitlistEntry) {
	if s.scheduler == nil || entry.ExpiresAt == nil {
		return
	}

	entryID := entry.ID
	handle := s.scheduler.ScheduleAt(*entry.ExpiresAt, fmt.Sprintf("waitlist-expire-%d", entryID), func(ctx context.Context) {
		if err := s.HandleExpiration(ctx, entryID); err != nil {
			s.logger.Error("waitlist timer: entry id=%d: %v", entryID, err)
		}
	})

	s.mu.Lock()
	prev, ok := s.timers[entryID]
	s.timers[entryID] = handle
	s.mu.Unlock()

	if ok {
		prev.Cancel()
	}
}

func (s *Service) cancelTimer(entryID int64) {
	s.mu.Lock()
	handle, ok := s.timers[entryID]
	delete(s.timers, entryID)
	s.mu.Unlock()

	if ok {
		handle.Cancel()
	}
}

func (s *Service) forgetTimer(entryID int64) {
	s.mu.Lock()
	delete(s.timers, entryID)
	s.mu.Unlock()
}

// PendingTimers число записей с активным таймером
func (s *Service) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Service) send(ctx context.Context, op string, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("%s: failed to enqueue %s notification for patient=%d: %v", op, msg.Kind, msg.PatientID, err)
	}
}
