package create_appointment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модель запроса на запись к врачу
type Request struct {
	PatientID         int64     // ID пациента
	ProviderID        int64     // ID врача
	AppointmentTypeID int64     // ID типа приема, задает длительность
	ScheduledAt       time.Time // Начало приема
	ReasonForVisit    *string   // Причина обращения (опционально)
	Notes             *string   // Заметки (опционально)
	IsTelemedicine    bool      // Онлайн прием
}

// Response модель ответа с созданным приемом
type Response struct {
	Appointment *domain.Appointment
	Insurance   *InsuranceCheck // nil, если полиса нет или проверка не удалась
}

// InsuranceCheck результат проверки полиса на дату приема
type InsuranceCheck struct {
	Eligible    bool
	CopayAmount *float64
	PlanName    string
}
