package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/scheduler"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
)

// SendReminder отправляет напоминание о подтвержденном приеме
// Напоминание отправляется не более одного раза: отметка в reminder_sent ставится до отправки.
// Возвращает false, если прием больше не подтвержден или напоминание уже ушло.
func (s *Service) SendReminder(ctx context.Context, appointmentID int64, kind domain.ReminderKind) (bool, error) {
	appointment, err := s.getAppointment(ctx, "SendReminder", appointmentID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return false, nil
		}
		return false, err
	}
	if appointment.Status != domain.StatusConfirmed {
		s.logger.Info("SendReminder: appointment id=%d is %s, reminder %s skipped", appointmentID, appointment.Status, kind)
		return false, nil
	}

	marked, err := s.appointmentRepo.MarkReminderSent(ctx, appointmentID, kind)
	if err != nil {
		s.logger.Error("SendReminder: failed to mark reminder %s for appointment id=%d: %v", kind, appointmentID, err)
		return false, fmt.Errorf("%w: SendReminder - mark reminder: %v", ErrInternal, err)
	}
	if !marked {
		s.logger.Info("SendReminder: reminder %s for appointment id=%d already sent", kind, appointmentID)
		return false, nil
	}

	now := s.timeProvider.Now()
	s.send(ctx, "SendReminder", notification.NewMessage(
		appointment.PatientID,
		notification.ChannelSMS,
		notification.KindAppointmentReminder,
		fmt.Sprintf("Reminder: your appointment is on %s.",
			appointment.ScheduledAt.In(s.loc).Format("2006-01-02 15:04")),
		now,
	).WithParams(map[string]string{
		"appointment_id": fmt.Sprint(appointment.ID),
		"reminder":       string(kind),
	}))

	s.logger.Info("SendReminder: reminder %s sent for appointment id=%d", kind, appointmentID)
	return true, nil
}

// RestoreReminders заново ставит напоминания для будущих подтвержденных приемов после перезапуска
func (s *Service) RestoreReminders(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()
	appointments, err := s.appointmentRepo.List(ctx, domain.AppointmentsFilter{
		From:     &now,
		Statuses: []domain.AppointmentStatus{domain.StatusConfirmed},
	})
	if err != nil {
		s.logger.Error("RestoreReminders: failed to list confirmed appointments: %v", err)
		return 0, fmt.Errorf("%w: RestoreReminders - list appointments: %v", ErrInternal, err)
	}

	total := 0
	for _, appointment := range appointments {
		total += s.scheduleReminders(appointment, now)
	}

	s.logger.Info("RestoreReminders: scheduled %d reminders for %d appointments", total, len(appointments))
	return total, nil
}

// ScheduleReminders ставит напоминания для приема, подтвержденного в обход перехода статуса
// Например, для приема, переданного пациенту из листа ожидания
func (s *Service) ScheduleReminders(a *domain.Appointment) int {
	if a == nil || a.Status != domain.StatusConfirmed {
		return 0
	}
	return s.scheduleReminders(a, s.timeProvider.Now())
}

// scheduleReminders ставит таймеры на напоминания, которые еще в будущем и не отправлены
func (s *Service) scheduleReminders(a *domain.Appointment, now time.Time) int {
	if s.scheduler == nil {
		return 0
	}

	handles := make([]scheduler.Handle, 0, len(s.reminderOffsets))
	for _, offset := range s.reminderOffsets {
		at := a.ScheduledAt.Add(-offset)
		kind := domain.ReminderKindFor(offset)
		if !at.After(now) || a.ReminderSent[kind] {
			continue
		}

		appointmentID := a.ID
		name := fmt.Sprintf("appointment-reminder-%d-%s", appointmentID, kind)
		handles = append(handles, s.scheduler.ScheduleAt(at, name, func(ctx context.Context) {
			if _, err := s.SendReminder(ctx, appointmentID, kind); err != nil {
				s.logger.Error("reminder timer: appointment id=%d kind=%s: %v", appointmentID, kind, err)
			}
		}))
	}

	if len(handles) == 0 {
		return 0
	}

	s.mu.Lock()
	prev := s.reminders[a.ID]
	s.reminders[a.ID] = handles
	s.mu.Unlock()

	for _, h := range prev {
		h.Cancel()
	}
	return len(handles)
}

func (s *Service) cancelReminders(appointmentID int64) {
	s.mu.Lock()
	handles := s.reminders[appointmentID]
	delete(s.reminders, appointmentID)
	s.mu.Unlock()

	for _, h := range handles {
		h.Cancel()
	}
}

// PendingReminders число приемов с запланированными напоминаниями
func (s *Service) PendingReminders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reminders)
}
