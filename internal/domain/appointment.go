package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AppointmentStatus статус приема
type AppointmentStatus string

const (
	StatusRequested AppointmentStatus = "requested"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// ActiveStatuses статусы, занимающие время врача и пациента
var ActiveStatuses = []AppointmentStatus{StatusRequested, StatusConfirmed}

// AppointmentEvent событие жизненного цикла приема
type AppointmentEvent string

const (
	EventConfirm    AppointmentEvent = "confirm"
	EventComplete   AppointmentEvent = "complete"
	EventCancel     AppointmentEvent = "cancel"
	EventMarkNoShow AppointmentEvent = "mark_no_show"
)

// IsValid проверяет, что событие известно
func (e AppointmentEvent) IsValid() bool {
	switch e {
	case EventConfirm, EventComplete, EventCancel, EventMarkNoShow:
		return true
	}
	return false
}

// appointmentTransitions таблица переходов (статус, событие) -> статус
var appointmentTransitions = map[AppointmentStatus]map[AppointmentEvent]AppointmentStatus{
	StatusRequested: {
		EventConfirm: StatusConfirmed,
		EventCancel:  StatusCancelled,
	},
	StatusConfirmed: {
		EventComplete:   StatusCompleted,
		EventCancel:     StatusCancelled,
		EventMarkNoShow: StatusNoShow,
	},
}

// NextAppointmentStatus возвращает статус после события или ErrInvalidTransition
func NextAppointmentStatus(from AppointmentStatus, event AppointmentEvent) (AppointmentStatus, error) {
	if next, ok := appointmentTransitions[from][event]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: cannot %s appointment in status %s", ErrInvalidTransition, event, from)
}

// ReminderKind вид напоминания, например "24h" или "2h"
type ReminderKind string

// ReminderKindFor название напоминания для смещения до начала приема
func ReminderKindFor(offset time.Duration) ReminderKind {
	if offset%time.Hour == 0 {
		return ReminderKind(fmt.Sprintf("%dh", int(offset/time.Hour)))
	}
	return ReminderKind(fmt.Sprintf("%dm", int(offset/time.Minute)))
}

// ReminderSent отметки об отправленных напоминаниях, хранится в jsonb
type ReminderSent map[ReminderKind]bool

func (r ReminderSent) Value() (driver.Value, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(r)
}

func (r *ReminderSent) Scan(src interface{}) error {
	*r = ReminderSent{}
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("reminder_sent: unsupported type %T", src)
	}
}

// Appointment прием у врача
// Не удаляется физически: отмена это статус
type Appointment struct {
	ID                 int64
	PatientID          int64
	ProviderID         int64
	AppointmentTypeID  int64
	ScheduledAt        time.Time
	EndsAt             time.Time // всегда ScheduledAt + длительность типа приема
	Status             AppointmentStatus
	ReasonForVisit     *string
	Notes              *string
	IsTelemedicine     bool
	ConfirmationNumber string
	ConfirmedAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	CancellationReason *string
	CancelledBy        *string
	ReminderSent       ReminderSent
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// NewAppointment создает запрос на прием в статусе requested
func NewAppointment(patientID, providerID int64, appointmentType *AppointmentType, scheduledAt time.Time) *Appointment {
	return &Appointment{
		PatientID:         patientID,
		ProviderID:        providerID,
		AppointmentTypeID: appointmentType.ID,
		ScheduledAt:       scheduledAt,
		EndsAt:            scheduledAt.Add(time.Duration(appointmentType.DurationMinutes) * time.Minute),
		Status:            StatusRequested,
		ReminderSent:      ReminderSent{},
	}
}

// IsActive прием занимает время врача
func (a *Appointment) IsActive() bool {
	return a.Status == StatusRequested || a.Status == StatusConfirmed
}

// Interval интервал приема
func (a *Appointment) Interval() Interval {
	return Interval{Start: a.ScheduledAt, End: a.EndsAt}
}

// DurationMinutes длительность приема
func (a *Appointment) DurationMinutes() int {
	return int(a.EndsAt.Sub(a.ScheduledAt) / time.Minute)
}

// CanBeCancelled отмена разрешена для активного приема не позднее чем за notice до начала
func (a *Appointment) CanBeCancelled(now time.Time, notice time.Duration) bool {
	return a.IsActive() && a.ScheduledAt.After(now.Add(notice))
}

// CheckCancellationPolicy возвращает ErrPolicyViolation, если отмена запрещена
func (a *Appointment) CheckCancellationPolicy(now time.Time, notice time.Duration) error {
	if !a.CanBeCancelled(now, notice) {
		return fmt.Errorf("%w: appointment can be cancelled only more than %s before start",
			ErrPolicyViolation, notice)
	}
	return nil
}

// IsParticipant пациент или врач приема
func (a *Appointment) IsParticipant(userID int64) bool {
	return a.PatientID == userID || a.ProviderID == userID
}

// AppointmentsFilter параметры выборки приемов
type AppointmentsFilter struct {
	ProviderID *int64
	PatientID  *int64
	From       *time.Time // интервал приема пересекается с [From, To)
	To         *time.Time
	Statuses   []AppointmentStatus
}
