package rank_options

import (
	"math"
	"strings"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Веса составляющих итоговой оценки
const (
	WeightRating       = 0.25
	WeightDistance     = 0.20
	WeightAvailability = 0.20
	WeightInsurance    = 0.15
	WeightPreference   = 0.20
)

// ScoreBreakdown составляющие оценки до умножения на веса
// Preference не нормируется к 5.0: максимум 4.0
type ScoreBreakdown struct {
	Rating       float64
	Distance     float64
	Availability float64
	Insurance    float64
	Preference   float64
}

// Total взвешенная сумма, округленная до сотых
func (b ScoreBreakdown) Total() float64 {
	total := b.Rating*WeightRating +
		b.Distance*WeightDistance +
		b.Availability*WeightAvailability +
		b.Insurance*WeightInsurance +
		b.Preference*WeightPreference
	return math.Round(total*100) / 100
}

// ScoreInput данные для оценки одного варианта
type ScoreInput struct {
	Provider       *domain.Provider
	SlotType       domain.TimeOfDay
	DaysFromNow    int      // календарных дней от сегодня до даты слота
	DistanceKm     *float64 // nil, если нет геоданных
	PatientInsurer *string
	Preferences    Preferences
}

// Score оценивает вариант записи
func Score(in ScoreInput) ScoreBreakdown {
	return ScoreBreakdown{
		Rating:       in.Provider.Rating,
		Distance:     distanceScore(in.DistanceKm),
		Availability: availabilityScore(in.DaysFromNow),
		Insurance:    insuranceScore(in.Provider, in.PatientInsurer),
		Preference:   preferenceScore(in.Provider, in.SlotType, in.Preferences),
	}
}

func distanceScore(km *float64) float64 {
	if km == nil {
		return 5.0
	}
	switch d := *km; {
	case d <= 5:
		return 5.0
	case d <= 15:
		return 3.0
	case d <= 25:
		return 1.0
	default:
		return 0.0
	}
}

// availabilityScore чем раньше слот, тем выше оценка
func availabilityScore(days int) float64 {
	switch {
	case days <= 3:
		return 5.0
	case days <= 7:
		return 4.0
	case days <= 14:
		return 3.0
	case days <= 21:
		return 2.0
	default:
		return 1.0
	}
}

func insuranceScore(p *domain.Provider, insurer *string) float64 {
	if insurer != nil && p.AcceptsInsurance(*insurer) {
		return 5.0
	}
	return 0.0
}

func preferenceScore(p *domain.Provider, slotType domain.TimeOfDay, prefs Preferences) float64 {
	score := 0.0

	for _, t := range prefs.PreferredTimes {
		if t == slotType {
			score += 2.0
			break
		}
	}

	if prefs.ProviderGender != nil && p.Gender != nil && strings.EqualFold(*p.Gender, *prefs.ProviderGender) {
		score += 1.0
	}

	if prefs.Language != nil && p.PrimaryLanguage != nil && strings.EqualFold(*p.PrimaryLanguage, *prefs.Language) {
		score += 1.0
	}

	return score
}

// EstimateWaitMinutes оценка ожидания в клинике по числу активных приемов врача за день
func EstimateWaitMinutes(sameDayAppointments int) int {
	switch {
	case sameDayAppointments <= 5:
		return 5
	case sameDayAppointments <= 10:
		return 15
	case sameDayAppointments <= 15:
		return 25
	default:
		return 35
	}
}
