package notification

import (
	"time"

	"github.com/google/uuid"
)

// Channel канал доставки
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Kind вид уведомления
type Kind string

const (
	KindAppointmentConfirmed Kind = "appointment_confirmed"
	KindAppointmentCancelled Kind = "appointment_cancelled"
	KindAppointmentReminder  Kind = "appointment_reminder"
	KindWaitlistOffer        Kind = "waitlist_offer"
	KindWaitlistClaimed      Kind = "waitlist_claimed"
)

// Message уведомление пациенту
// Контакты пациента не передаются: получатель определяется по PatientID на стороне доставки
type Message struct {
	ID        string            `json:"id"` // ключ идемпотентности, доставка at-least-once
	PatientID int64             `json:"patient_id"`
	Channel   Channel           `json:"channel"`
	Kind      Kind              `json:"kind"`
	Body      string            `json:"body"`
	Params    map[string]string `json:"params,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewMessage создает уведомление с уникальным ID
func NewMessage(patientID int64, channel Channel, kind Kind, body string, now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Channel:   channel,
		Kind:      kind,
		Body:      body,
		CreatedAt: now,
	}
}

// WithParams возвращает копию уведомления с параметрами шаблона
func (m Message) WithParams(params map[string]string) Message {
	m.Params = params
	return m
}
