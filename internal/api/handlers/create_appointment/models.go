package create_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

// CreateAppointmentRequest HTTP request model
type CreateAppointmentRequest struct {
	ProviderID        int64   `json:"providerId"`
	AppointmentTypeID int64   `json:"appointmentTypeId"`
	ScheduledAt       string  `json:"scheduledAt"` // ISO 8601
	ReasonForVisit    *string `json:"reasonForVisit,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	IsTelemedicine    bool    `json:"isTelemedicine"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
// Пациентом считается пользователь из X-User-ID
func (r *CreateAppointmentRequest) ToUseCaseRequest(patientID int64) (*createAppointment.Request, error) {
	scheduledAt, err := time.Parse(domain.DateTimeFormat, r.ScheduledAt)
	if err != nil {
		return nil, err
	}

	return &createAppointment.Request{
		PatientID:         patientID,
		ProviderID:        r.ProviderID,
		AppointmentTypeID: r.AppointmentTypeID,
		ScheduledAt:       scheduledAt,
		ReasonForVisit:    r.ReasonForVisit,
		Notes:             r.Notes,
		IsTelemedicine:    r.IsTelemedicine,
	}, nil
}

// CreateAppointmentResponse HTTP response model
type CreateAppointmentResponse struct {
	*models.AppointmentResponse
	Insurance *InsuranceResponse `json:"insurance,omitempty"`
}

// InsuranceResponse результат проверки полиса
type InsuranceResponse struct {
	Eligible    bool     `json:"eligible"`
	CopayAmount *float64 `json:"copayAmount,omitempty"`
	PlanName    string   `json:"planName,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *createAppointment.Response) *CreateAppointmentResponse {
	result := &CreateAppointmentResponse{
		AppointmentResponse: models.FromDomainAppointment(resp.Appointment),
	}

	if resp.Insurance != nil {
		result.Insurance = &InsuranceResponse{
			Eligible:    resp.Insurance.Eligible,
			CopayAmount: resp.Insurance.CopayAmount,
			PlanName:    resp.Insurance.PlanName,
		}
	}

	return result
}
