package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ErrInvalidDate возвращается при некорректной дате
var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// Request модели

// UpsertScheduleRequest запрос на создание или замену расписания врача на дату
type UpsertScheduleRequest struct {
	UserID              int64   `json:"userId"`
	ProviderID          int64   `json:"providerId"`
	Date                string  `json:"date"`      // "2025-10-15"
	StartTime           string  `json:"startTime"` // "09:00"
	EndTime             string  `json:"endTime"`
	SlotDurationMinutes int     `json:"slotDurationMinutes"` // 0 = по умолчанию
	IsAvailable         bool    `json:"isAvailable"`
	Notes               *string `json:"notes,omitempty"`
}

// ToDomainSchedule конвертирует запрос в domain модель
func (r *UpsertScheduleRequest) ToDomainSchedule() (*domain.ProviderSchedule, error) {
	date, err := time.Parse(domain.DateFormat, r.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	start, err := types.NewTimeStringFromString(r.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := types.NewTimeStringFromString(r.EndTime)
	if err != nil {
		return nil, err
	}

	duration := r.SlotDurationMinutes
	if duration == 0 {
		duration = domain.DefaultSlotDurationMinutes
	}

	return &domain.ProviderSchedule{
		ProviderID:          r.ProviderID,
		Date:                date,
		StartTime:           start,
		EndTime:             end,
		SlotDurationMinutes: duration,
		IsAvailable:         r.IsAvailable,
		Notes:               r.Notes,
	}, nil
}

// ListSchedulesRequest запрос расписаний врача за период
type ListSchedulesRequest struct {
	ProviderID int64
	From       time.Time
	To         time.Time
}

// Response модели

// ScheduleResponse ответ с данными расписания
type ScheduleResponse struct {
	ID                  int64     `json:"id"`
	ProviderID          int64     `json:"providerId"`
	Date                string    `json:"date"`
	StartTime           string    `json:"startTime"`
	EndTime             string    `json:"endTime"`
	SlotDurationMinutes int       `json:"slotDurationMinutes"`
	IsAvailable         bool      `json:"isAvailable"`
	Notes               *string   `json:"notes,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// ScheduleListResponse ответ со списком расписаний
type ScheduleListResponse struct {
	Schedules []ScheduleResponse `json:"schedules"`
}

// FromDomainSchedule конвертирует domain модель в DTO
func FromDomainSchedule(s *domain.ProviderSchedule) *ScheduleResponse {
	if s == nil {
		return nil
	}

	return &ScheduleResponse{
		ID:                  s.ID,
		ProviderID:          s.ProviderID,
		Date:                s.Date.Format(domain.DateFormat),
		StartTime:           s.StartTime.String(),
		EndTime:             s.EndTime.String(),
		SlotDurationMinutes: s.SlotDurationMinutes,
		IsAvailable:         s.IsAvailable,
		Notes:               s.Notes,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           s.UpdatedAt,
	}
}

// FromDomainScheduleList конвертирует список domain моделей в DTO
func FromDomainScheduleList(schedules []*domain.ProviderSchedule) *ScheduleListResponse {
	resp := &ScheduleListResponse{
		Schedules: make([]ScheduleResponse, 0, len(schedules)),
	}
	for _, s := range schedules {
		if r := FromDomainSchedule(s); r != nil {
			resp.Schedules = append(resp.Schedules, *r)
		}
	}
	return resp
}
