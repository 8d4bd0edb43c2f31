package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/geo"
)

// Patient пациент
// Медицинские поля в сервис не загружаются
type Patient struct {
	ID              int64
	DateOfBirth     time.Time
	Gender          *string
	PrimaryLanguage *string
	Latitude        *float64
	Longitude       *float64
	PrimaryInsurer  *string // страховая компания основного полиса
	InsuranceMember *string // номер полиса
	Phone           *string
	Email           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Age полных лет на дату now
func (p *Patient) Age(now time.Time) int {
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	return years
}

// Location координаты пациента, false если геоданных нет
func (p *Patient) Location() (geo.Point, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *p.Latitude, Lng: *p.Longitude}, true
}

// PatientHistory счетчики прошлых приемов пациента
type PatientHistory struct {
	CompletedCount int
	NoShowCount    int
}
