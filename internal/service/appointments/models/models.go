package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid appointment status")

	// ErrInvalidEvent возвращается при неизвестном событии жизненного цикла
	ErrInvalidEvent = errors.New("invalid appointment event")
)

// Request модели

// TransitionRequest запрос на изменение статуса приема
type TransitionRequest struct {
	UserID             int64   `json:"userId"`
	Event              string  `json:"event"`                        // confirm, complete, cancel, mark_no_show
	CancellationReason *string `json:"cancellationReason,omitempty"` // только для cancel
}

// ToDomainEvent конвертирует событие с валидацией
func (r *TransitionRequest) ToDomainEvent() (domain.AppointmentEvent, error) {
	event := domain.AppointmentEvent(r.Event)
	if !event.IsValid() {
		return "", ErrInvalidEvent
	}
	return event, nil
}

// UpdateDetailsRequest запрос на изменение причины визита и заметок
type UpdateDetailsRequest struct {
	UserID         int64   `json:"userId"`
	ReasonForVisit *string `json:"reasonForVisit,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// GetPatientAppointmentsRequest запрос на получение приемов пациента
type GetPatientAppointmentsRequest struct {
	UserID    int64   `json:"userId"`
	PatientID int64   `json:"patientId"`
	Status    *string `json:"status,omitempty"`
}

// GetProviderAppointmentsRequest запрос на получение приемов врача
type GetProviderAppointmentsRequest struct {
	UserID     int64      `json:"userId"`
	ProviderID int64      `json:"providerId"`
	StartDate  *time.Time `json:"startDate,omitempty"` // начало периода (опционально)
	EndDate    *time.Time `json:"endDate,omitempty"`   // конец периода (опционально)
	Status     *string    `json:"status,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetProviderAppointmentsRequest) ToDomainFilter() (domain.AppointmentsFilter, error) {
	providerID := r.ProviderID
	filter := domain.AppointmentsFilter{
		ProviderID: &providerID,
		From:       r.StartDate,
		To:         r.EndDate,
	}

	if r.Status != nil {
		status, err := ToDomainAppointmentStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Statuses = []domain.AppointmentStatus{status}
	}

	return filter, nil
}

// Response модели

// AppointmentResponse ответ с данными приема
type AppointmentResponse struct {
	ID                 int64  `json:"id"`
	PatientID          int64  `json:"patientId"`
	ProviderID         int64  `json:"providerId"`
	AppointmentTypeID  int64  `json:"appointmentTypeId"`
	ScheduledAt        string `json:"scheduledAt"` // ISO 8601
	EndsAt             string `json:"endsAt"`
	DurationMinutes    int    `json:"durationMinutes"`
	Status             string `json:"status"`
	ConfirmationNumber string `json:"confirmationNumber"`
	IsTelemedicine     bool   `json:"isTelemedicine"`

	ReasonForVisit *string `json:"reasonForVisit,omitempty"`
	Notes          *string `json:"notes,omitempty"`

	ConfirmedAt        *string `json:"confirmedAt,omitempty"`
	CompletedAt        *string `json:"completedAt,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledBy        *string `json:"cancelledBy,omitempty"`

	RemindersSent []string `json:"remindersSent,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppointmentListResponse ответ со списком приемов
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
}

// Методы конвертации

// FromDomainAppointment конвертирует domain модель в DTO
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:                 a.ID,
		PatientID:          a.PatientID,
		ProviderID:         a.ProviderID,
		AppointmentTypeID:  a.AppointmentTypeID,
		ScheduledAt:        a.ScheduledAt.Format(time.RFC3339),
		EndsAt:             a.EndsAt.Format(time.RFC3339),
		DurationMinutes:    a.DurationMinutes(),
		Status:             string(a.Status),
		ConfirmationNumber: a.ConfirmationNumber,
		IsTelemedicine:     a.IsTelemedicine,
		ReasonForVisit:     a.ReasonForVisit,
		Notes:              a.Notes,
		CancellationReason: a.CancellationReason,
		CancelledBy:        a.CancelledBy,
		ConfirmedAt:        formatTime(a.ConfirmedAt),
		CompletedAt:        formatTime(a.CompletedAt),
		CancelledAt:        formatTime(a.CancelledAt),
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
	}

	for kind, sent := range a.ReminderSent {
		if sent {
			resp.RemindersSent = append(resp.RemindersSent, string(kind))
		}
	}

	return resp
}

// FromDomainAppointmentList конвертирует список domain моделей в DTO
func FromDomainAppointmentList(appointments []*domain.Appointment) *AppointmentListResponse {
	resp := &AppointmentListResponse{
		Appointments: make([]AppointmentResponse, 0, len(appointments)),
	}

	for _, a := range appointments {
		if r := FromDomainAppointment(a); r != nil {
			resp.Appointments = append(resp.Appointments, *r)
		}
	}

	return resp
}

// ToDomainAppointmentStatus конвертирует строку в domain.AppointmentStatus с валидацией
func ToDomainAppointmentStatus(status string) (domain.AppointmentStatus, error) {
	s := domain.AppointmentStatus(status)

	validStatuses := []domain.AppointmentStatus{
		domain.StatusRequested,
		domain.StatusConfirmed,
		domain.StatusCompleted,
		domain.StatusCancelled,
		domain.StatusNoShow,
	}

	for _, valid := range validStatuses {
		if s == valid {
			return s, nil
		}
	}

	return "", ErrInvalidStatus
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
