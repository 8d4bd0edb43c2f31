package create_appointment

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/availability"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.PatientID <= 0 {
		return fmt.Errorf("%w: patientID must be positive", ErrInvalidInput)
	}

	if req.ProviderID <= 0 {
		return fmt.Errorf("%w: providerID must be positive", ErrInvalidInput)
	}

	if req.AppointmentTypeID <= 0 {
		return fmt.Errorf("%w: appointmentTypeID must be positive", ErrInvalidInput)
	}

	if req.ScheduledAt.IsZero() {
		return fmt.Errorf("%w: scheduledAt is required", ErrInvalidInput)
	}

	if req.ReasonForVisit != nil && len(*req.ReasonForVisit) > domain.MaxReasonLength {
		return fmt.Errorf("%w: reasonForVisit is longer than %d characters", ErrInvalidInput, domain.MaxReasonLength)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes are longer than %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	return nil
}

// validateAppointmentType проверяет длительность и доступность онлайн приема
func validateAppointmentType(t *domain.AppointmentType, telemedicine bool) error {
	if !domain.IsValidDuration(t.DurationMinutes) {
		return fmt.Errorf("%w: appointment type id=%d has invalid duration %d",
			ErrInvalidInput, t.ID, t.DurationMinutes)
	}
	if telemedicine && !t.TelemedicineEligible {
		return fmt.Errorf("%w: appointment type %q is not available online", ErrInvalidInput, t.Name)
	}
	return nil
}

// validateWithinSchedule проверяет, что прием целиком укладывается в рабочий день
func validateWithinSchedule(schedule *domain.ProviderSchedule, interval domain.Interval, loc *time.Location) error {
	if !schedule.IsAvailable {
		return fmt.Errorf("%w: provider is not available on %s", ErrProviderUnavailable, schedule.Date.Format(domain.DateFormat))
	}

	dayStart, dayEnd, err := schedule.Bounds(loc)
	if err != nil {
		return fmt.Errorf("%w: schedule id=%d bounds: %v", ErrInternal, schedule.ID, err)
	}
	if interval.Start.Before(dayStart) || interval.End.After(dayEnd) {
		return fmt.Errorf("%w: %s-%s is outside working hours %s-%s", ErrProviderUnavailable,
			interval.Start.In(loc).Format(domain.TimeFormat), interval.End.In(loc).Format(domain.TimeFormat),
			schedule.StartTime, schedule.EndTime)
	}
	return nil
}

// checkProviderConflicts проверяет пересечение и буфер относительно активных приемов врача
func checkProviderConflicts(interval domain.Interval, bufferMinutes int, existing []*domain.Appointment) error {
	if availability.HasOverlap(interval, existing) {
		return fmt.Errorf("%w: provider already has an appointment at this time", ErrSchedulingConflict)
	}
	if availability.ViolatesBuffer(interval.Start, bufferMinutes, existing) {
		return fmt.Errorf("%w: appointment starts within %d minutes of another appointment",
			ErrSchedulingConflict, bufferMinutes)
	}
	return nil
}

// localDate календарная дата момента в часовом поясе клиники
func localDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
