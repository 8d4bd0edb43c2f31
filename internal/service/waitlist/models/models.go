package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrInvalidDate возвращается при некорректной дате
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

	// ErrInvalidTimeOfDay возвращается при неизвестной части дня
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
)

// Request модели

// JoinRequest запрос на постановку в лист ожидания
type JoinRequest struct {
	PatientID          int64                  `json:"patientId"`
	ProviderID         int64                  `json:"providerId"`
	AppointmentTypeID  int64                  `json:"appointmentTypeId"`
	PreferredDateStart string                 `json:"preferredDateStart"` // "2025-10-15"
	PreferredDateEnd   string                 `json:"preferredDateEnd"`
	PreferredTimeOfDay []string               `json:"preferredTimeOfDay"` // morning, afternoon, evening, other
	Notes              *string                `json:"notes,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// ToDomainEntry конвертирует запрос в новую запись листа ожидания
func (r *JoinRequest) ToDomainEntry() (*domain.WaitlistEntry, error) {
	start, err := time.Parse(domain.DateFormat, r.PreferredDateStart)
	if err != nil {
		return nil, fmt.Errorf("%w: preferredDateStart", ErrInvalidDate)
	}
	end, err := time.Parse(domain.DateFormat, r.PreferredDateEnd)
	if err != nil {
		return nil, fmt.Errorf("%w: preferredDateEnd", ErrInvalidDate)
	}

	times := make([]domain.TimeOfDay, 0, len(r.PreferredTimeOfDay))
	seen := make(map[domain.TimeOfDay]bool, len(r.PreferredTimeOfDay))
	for _, raw := range r.PreferredTimeOfDay {
		t := domain.TimeOfDay(raw)
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		times = append(times, t)
	}

	metadata := domain.WaitlistMetadata{}
	for k, v := range r.Metadata {
		metadata[k] = v
	}

	return &domain.WaitlistEntry{
		PatientID:          r.PatientID,
		ProviderID:         r.ProviderID,
		AppointmentTypeID:  r.AppointmentTypeID,
		PreferredDateStart: start,
		PreferredDateEnd:   end,
		PreferredTimeOfDay: times,
		Status:             domain.WaitlistActive,
		Notes:              r.Notes,
		Metadata:           metadata,
	}, nil
}

// Response модели

// EntryResponse ответ с данными записи листа ожидания
type EntryResponse struct {
	ID                   int64    `json:"id"`
	PatientID            int64    `json:"patientId"`
	ProviderID           int64    `json:"providerId"`
	AppointmentTypeID    int64    `json:"appointmentTypeId"`
	PreferredDateStart   string   `json:"preferredDateStart"`
	PreferredDateEnd     string   `json:"preferredDateEnd"`
	PreferredTimeOfDay   []string `json:"preferredTimeOfDay"`
	Priority             int      `json:"priority"`
	Status               string   `json:"status"`
	NotifiedAt           *string  `json:"notifiedAt,omitempty"` // ISO 8601
	ExpiresAt            *string  `json:"expiresAt,omitempty"`
	OfferedAppointmentID *int64   `json:"offeredAppointmentId,omitempty"`
	Notes                *string  `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromDomainEntry конвертирует domain модель в DTO
func FromDomainEntry(e *domain.WaitlistEntry) *EntryResponse {
	if e == nil {
		return nil
	}

	times := make([]string, len(e.PreferredTimeOfDay))
	for i, t := range e.PreferredTimeOfDay {
		times[i] = string(t)
	}

	resp := &EntryResponse{
		ID:                   e.ID,
		PatientID:            e.PatientID,
		ProviderID:           e.ProviderID,
		AppointmentTypeID:    e.AppointmentTypeID,
		PreferredDateStart:   e.PreferredDateStart.Format(domain.DateFormat),
		PreferredDateEnd:     e.PreferredDateEnd.Format(domain.DateFormat),
		PreferredTimeOfDay:   times,
		Priority:             e.Priority,
		Status:               string(e.Status),
		OfferedAppointmentID: e.OfferedAppointmentID,
		Notes:                e.Notes,
		CreatedAt:            e.CreatedAt,
		UpdatedAt:            e.UpdatedAt,
	}

	if e.NotifiedAt != nil {
		s := e.NotifiedAt.Format(time.RFC3339)
		resp.NotifiedAt = &s
	}
	if e.ExpiresAt != nil {
		s := e.ExpiresAt.Format(time.RFC3339)
		resp.ExpiresAt = &s
	}

	return resp
}

// ClaimResponse ответ на успешное подтверждение слота
type ClaimResponse struct {
	EntryID            int64  `json:"entryId"`
	AppointmentID      int64  `json:"appointmentId"`
	ConfirmationNumber string `json:"confirmationNumber"`
	ScheduledAt        string `json:"scheduledAt"` // ISO 8601
	Status             string `json:"status"`
}

// NotifyResponse результат выбора следующего претендента
type NotifyResponse struct {
	Notified bool           `json:"notified"`
	Entry    *EntryResponse `json:"entry,omitempty"`
}

// FromClaim формирует ответ по подтвержденному приему
func FromClaim(entryID int64, a *domain.Appointment) *ClaimResponse {
	return &ClaimResponse{
		EntryID:            entryID,
		AppointmentID:      a.ID,
		ConfirmationNumber: a.ConfirmationNumber,
		ScheduledAt:        a.ScheduledAt.Format(time.RFC3339),
		Status:             string(a.Status),
	}
}
