package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType тип доменного события
type EventType string

const (
	EventAppointmentUpdated  EventType = "appointment.updated"
	EventAvailabilityChanged EventType = "availability.changed"
	EventWaitlistUpdated     EventType = "waitlist.updated"
)

// Event доменное событие для шины
type Event struct {
	ID              string    `json:"id"`
	Type            EventType `json:"type"`
	ProviderID      int64     `json:"provider_id"`
	PatientID       int64     `json:"patient_id,omitempty"`
	AppointmentID   *int64    `json:"appointment_id,omitempty"`
	WaitlistEntryID *int64    `json:"waitlist_entry_id,omitempty"`
	Status          string    `json:"status,omitempty"`
	Date            string    `json:"date,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// NewAppointmentEvent событие об изменении приема
func NewAppointmentEvent(a *Appointment, now time.Time) Event {
	id := a.ID
	return Event{
		ID:            uuid.NewString(),
		Type:          EventAppointmentUpdated,
		ProviderID:    a.ProviderID,
		PatientID:     a.PatientID,
		AppointmentID: &id,
		Status:        string(a.Status),
		OccurredAt:    now,
	}
}

// NewAvailabilityEvent событие об изменении свободных слотов врача на дату
func NewAvailabilityEvent(providerID int64, date time.Time, now time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       EventAvailabilityChanged,
		ProviderID: providerID,
		Date:       date.Format(DateFormat),
		OccurredAt: now,
	}
}

// NewWaitlistEvent событие об изменении записи листа ожидания
func NewWaitlistEvent(e *WaitlistEntry, now time.Time) Event {
	id := e.ID
	ev := Event{
		ID:              uuid.NewString(),
		Type:            EventWaitlistUpdated,
		ProviderID:      e.ProviderID,
		PatientID:       e.PatientID,
		WaitlistEntryID: &id,
		Status:          string(e.Status),
		OccurredAt:      now,
	}
	if e.OfferedAppointmentID != nil {
		appointmentID := *e.OfferedAppointmentID
		ev.AppointmentID = &appointmentID
	}
	return ev
}
