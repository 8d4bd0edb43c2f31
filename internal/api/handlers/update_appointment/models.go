package update_appointment

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// UpdateAppointmentRequest HTTP request model, отсутствующее поле не меняется
type UpdateAppointmentRequest struct {
	ReasonForVisit *string `json:"reasonForVisit,omitempty"`
	Notes          *string `json:"notes,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UpdateAppointmentRequest) ToServiceRequest(userID int64) *models.UpdateDetailsRequest {
	return &models.UpdateDetailsRequest{
		UserID:         userID,
		ReasonForVisit: r.ReasonForVisit,
		Notes:          r.Notes,
	}
}
