package join_waitlist

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/waitlist/models"
)

// JoinWaitlistRequest HTTP request model
type JoinWaitlistRequest struct {
	ProviderID         int64                  `json:"providerId"`
	AppointmentTypeID  int64                  `json:"appointmentTypeId"`
	PreferredDateStart string                 `json:"preferredDateStart"` // "2025-10-15"
	PreferredDateEnd   string                 `json:"preferredDateEnd"`
	PreferredTimeOfDay []string               `json:"preferredTimeOfDay"`
	Notes              *string                `json:"notes,omitempty"`
	Metadata           map[string]interface{} `json:"metadata,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
// Пациентом считается пользователь из X-User-ID
func (r *JoinWaitlistRequest) ToServiceRequest(patientID int64) *models.JoinRequest {
	return &models.JoinRequest{
		PatientID:          patientID,
		ProviderID:         r.ProviderID,
		AppointmentTypeID:  r.AppointmentTypeID,
		PreferredDateStart: r.PreferredDateStart,
		PreferredDateEnd:   r.PreferredDateEnd,
		PreferredTimeOfDay: r.PreferredTimeOfDay,
		Notes:              r.Notes,
		Metadata:           r.Metadata,
	}
}
