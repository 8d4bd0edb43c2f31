package search_appointments

import (
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	rankOptions "github.com/m04kA/SMC-AppointmentService/internal/usecase/rank_options"
	"github.com/m04kA/SMC-AppointmentService/pkg/geo"
)

// SearchRequest HTTP request model
type SearchRequest struct {
	Filters     FiltersRequest     `json:"filters"`
	Preferences PreferencesRequest `json:"preferences"`
	Limit       int                `json:"limit,omitempty"`
}

// FiltersRequest фильтры подбора
type FiltersRequest struct {
	Specialty   *string          `json:"specialty,omitempty"`
	Location    *LocationRequest `json:"location,omitempty"`
	MaxDistance *float64         `json:"maxDistance,omitempty"` // км
	MinRating   *float64         `json:"minRating,omitempty"`
	DateRange   int              `json:"dateRange,omitempty"` // дней
}

// LocationRequest точка поиска
type LocationRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PreferencesRequest пожелания пациента
type PreferencesRequest struct {
	PreferredTimes []string `json:"preferredTimes,omitempty"` // morning, afternoon, evening, other
	ProviderGender *string  `json:"providerGender,omitempty"`
	Language       *string  `json:"language,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
// Пациентом считается пользователь из X-User-ID
func (r *SearchRequest) ToUseCaseRequest(patientID int64) *rankOptions.Request {
	req := &rankOptions.Request{
		PatientID: patientID,
		Limit:     r.Limit,
		Filters: rankOptions.Filters{
			Specialty:     r.Filters.Specialty,
			MaxDistanceKm: r.Filters.MaxDistance,
			MinRating:     r.Filters.MinRating,
			DateRangeDays: r.Filters.DateRange,
		},
		Preferences: rankOptions.Preferences{
			ProviderGender: r.Preferences.ProviderGender,
			Language:       r.Preferences.Language,
		},
	}

	if r.Filters.Location != nil {
		req.Filters.Location = &geo.Point{Lat: r.Filters.Location.Lat, Lng: r.Filters.Location.Lng}
	}

	for _, t := range r.Preferences.PreferredTimes {
		req.Preferences.PreferredTimes = append(req.Preferences.PreferredTimes, domain.TimeOfDay(t))
	}

	return req
}

// SearchResponse HTTP response model
type SearchResponse struct {
	Options []OptionResponse `json:"options"`
}

// OptionResponse вариант записи
type OptionResponse struct {
	ProviderID           int64             `json:"providerId"`
	ProviderName         string            `json:"providerName"`
	Date                 string            `json:"date"`
	Time                 string            `json:"time"`
	DateTime             string            `json:"datetime"`
	SlotType             string            `json:"slotType"`
	AppointmentTypeID    int64             `json:"appointmentTypeId"`
	AppointmentType      string            `json:"appointmentType"`
	DurationMinutes      int               `json:"durationMinutes"`
	EstimatedWaitMinutes int               `json:"estimatedWaitMinutes"`
	DistanceKm           *float64          `json:"distanceKm,omitempty"`
	Score                float64           `json:"score"`
	Breakdown            BreakdownResponse `json:"scoreBreakdown"`
}

// BreakdownResponse составляющие оценки
type BreakdownResponse struct {
	Rating       float64 `json:"rating"`
	Distance     float64 `json:"distance"`
	Availability float64 `json:"availability"`
	Insurance    float64 `json:"insurance"`
	Preference   float64 `json:"preference"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP модель
func FromUseCaseResponse(resp *rankOptions.Response) *SearchResponse {
	result := &SearchResponse{
		Options: make([]OptionResponse, 0, len(resp.Options)),
	}

	for _, o := range resp.Options {
		result.Options = append(result.Options, OptionResponse{
			ProviderID:           o.ProviderID,
			ProviderName:         o.ProviderName,
			Date:                 o.Date.Format(domain.DateFormat),
			Time:                 o.Time.String(),
			DateTime:             o.ScheduledAt.Format(domain.DateTimeFormat),
			SlotType:             string(o.SlotType),
			AppointmentTypeID:    o.AppointmentTypeID,
			AppointmentType:      o.AppointmentTypeName,
			DurationMinutes:      o.DurationMinutes,
			EstimatedWaitMinutes: o.EstimatedWaitMinutes,
			DistanceKm:           o.DistanceKm,
			Score:                o.Score,
			Breakdown: BreakdownResponse{
				Rating:       o.Breakdown.Rating,
				Distance:     o.Breakdown.Distance,
				Availability: o.Breakdown.Availability,
				Insurance:    o.Breakdown.Insurance,
				Preference:   o.Breakdown.Preference,
			},
		})
	}

	return result
}
