package upsert_provider_schedule

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedules/models"
)

// UpsertScheduleRequest HTTP request model
type UpsertScheduleRequest struct {
	StartTime           string  `json:"startTime"` // "09:00"
	EndTime             string  `json:"endTime"`   // "17:00"
	SlotDurationMinutes int     `json:"slotDurationMinutes,omitempty"`
	IsAvailable         *bool   `json:"isAvailable,omitempty"` // по умолчанию true
	Notes               *string `json:"notes,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UpsertScheduleRequest) ToServiceRequest(userID, providerID int64, date string) *models.UpsertScheduleRequest {
	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}

	return &models.UpsertScheduleRequest{
		UserID:              userID,
		ProviderID:          providerID,
		Date:                date,
		StartTime:           r.StartTime,
		EndTime:             r.EndTime,
		SlotDurationMinutes: r.SlotDurationMinutes,
		IsAvailable:         available,
		Notes:               r.Notes,
	}
}
