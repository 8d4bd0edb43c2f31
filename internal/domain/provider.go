package domain

import (
	"strings"
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/geo"
)

// Provider врач
type Provider struct {
	ID                   int64
	FirstName            string
	LastName             string
	Gender               *string
	PrimaryLanguage      *string
	Specialties          []string
	AcceptedInsurances   []string
	Rating               float64 // 0.0 - 5.0
	Latitude             *float64
	Longitude            *float64
	AcceptingNewPatients bool
	BookingBufferMinutes int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Location координаты практики, false если геоданных нет
func (p *Provider) Location() (geo.Point, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *p.Latitude, Lng: *p.Longitude}, true
}

// HasSpecialty проверяет специализацию без учета регистра
func (p *Provider) HasSpecialty(specialty string) bool {
	return containsFold(p.Specialties, specialty)
}

// AcceptsInsurance проверяет, принимает ли врач страховку
func (p *Provider) AcceptsInsurance(insurer string) bool {
	return containsFold(p.AcceptedInsurances, insurer)
}

func containsFold(values []string, v string) bool {
	for _, s := range values {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

// ProviderFilter параметры выборки врачей
type ProviderFilter struct {
	Specialty     *string // фильтр по специализации
	Insurer       *string // страховая пациента должна приниматься врачом
	MinRating     float64 // минимальный рейтинг
	OnlyAccepting bool    // только врачи, принимающие новых пациентов
	Limit         uint64  // 0 = без ограничения
	Offset        uint64
}
