package transition_appointment

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// TransitionAppointmentRequest HTTP request model, тело необязательно
type TransitionAppointmentRequest struct {
	CancellationReason *string `json:"cancellationReason,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *TransitionAppointmentRequest) ToServiceRequest(userID int64, event string) *models.TransitionRequest {
	return &models.TransitionRequest{
		UserID:             userID,
		Event:              event,
		CancellationReason: r.CancellationReason,
	}
}
