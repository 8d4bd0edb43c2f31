package models

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ListProvidersRequest параметры поиска врачей в справочнике
type ListProvidersRequest struct {
	Specialty *string
	Insurance *string
	Lat       *float64
	Lng       *float64
	RadiusKm  *float64 // nil = радиус по умолчанию
	MinRating *float64
	Page      int // с 1, 0 = первая страница
	PerPage   int // 0 = размер по умолчанию
}

// ProviderResponse карточка врача
type ProviderResponse struct {
	ID                   int64    `json:"id"`
	FirstName            string   `json:"firstName"`
	LastName             string   `json:"lastName"`
	Gender               *string  `json:"gender,omitempty"`
	PrimaryLanguage      *string  `json:"primaryLanguage,omitempty"`
	Specialties          []string `json:"specialties"`
	AcceptedInsurances   []string `json:"acceptedInsurances"`
	Rating               float64  `json:"rating"`
	Latitude             *float64 `json:"latitude,omitempty"`
	Longitude            *float64 `json:"longitude,omitempty"`
	AcceptingNewPatients bool     `json:"acceptingNewPatients"`
	BookingBufferMinutes int      `json:"bookingBufferMinutes"`
	DistanceKm           *float64 `json:"distanceKm,omitempty"`
}

// ProvidersResponse страница справочника врачей
type ProvidersResponse struct {
	Providers []ProviderResponse `json:"providers"`
	Page      int                `json:"page"`
	PerPage   int                `json:"perPage"`
}

// AppointmentTypeResponse тип приема
type AppointmentTypeResponse struct {
	ID                   int64  `json:"id"`
	Name                 string `json:"name"`
	DurationMinutes      int    `json:"durationMinutes"`
	TelemedicineEligible bool   `json:"telemedicineEligible"`
}

// AppointmentTypesResponse справочник типов приема
type AppointmentTypesResponse struct {
	AppointmentTypes []AppointmentTypeResponse `json:"appointmentTypes"`
}

func FromDomainProvider(p *domain.Provider, distanceKm *float64) ProviderResponse {
	specialties := p.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	insurances := p.AcceptedInsurances
	if insurances == nil {
		insurances = []string{}
	}
	return ProviderResponse{
		ID:                   p.ID,
		FirstName:            p.FirstName,
		LastName:             p.LastName,
		Gender:               p.Gender,
		PrimaryLanguage:      p.PrimaryLanguage,
		Specialties:          specialties,
		AcceptedInsurances:   insurances,
		Rating:               p.Rating,
		Latitude:             p.Latitude,
		Longitude:            p.Longitude,
		AcceptingNewPatients: p.AcceptingNewPatients,
		BookingBufferMinutes: p.BookingBufferMinutes,
		DistanceKm:           distanceKm,
	}
}

func FromDomainAppointmentType(t *domain.AppointmentType) AppointmentTypeResponse {
	return AppointmentTypeResponse{
		ID:                   t.ID,
		Name:                 t.Name,
		DurationMinutes:      t.DurationMinutes,
		TelemedicineEligible: t.TelemedicineEligible,
	}
}
