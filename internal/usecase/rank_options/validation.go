package rank_options

import (
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// normalizeRequest валидирует запрос и подставляет значения по умолчанию
func normalizeRequest(req *Request) error {
	if req.PatientID <= 0 {
		return fmt.Errorf("%w: patientID must be positive", ErrInvalidInput)
	}

	switch {
	case req.Limit == 0:
		req.Limit = domain.DefaultRankLimit
	case req.Limit < 0 || req.Limit > domain.MaxRankLimit:
		return fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, domain.MaxRankLimit)
	}

	f := &req.Filters
	if f.DateRangeDays == 0 {
		f.DateRangeDays = domain.DefaultDateRangeDays
	}
	if f.DateRangeDays < 0 {
		return fmt.Errorf("%w: dateRange must be positive", ErrInvalidInput)
	}

	if f.MinRating == nil {
		rating := domain.DefaultMinRating
		f.MinRating = &rating
	}
	if *f.MinRating < 0 || *f.MinRating > 5 {
		return fmt.Errorf("%w: minRating must be between 0 and 5", ErrInvalidInput)
	}

	if f.Location != nil {
		if f.Location.Lat < -90 || f.Location.Lat > 90 || f.Location.Lng < -180 || f.Location.Lng > 180 {
			return fmt.Errorf("%w: location is out of range", ErrInvalidInput)
		}
		if f.MaxDistanceKm == nil {
			distance := domain.DefaultMaxDistanceKm
			f.MaxDistanceKm = &distance
		}
		if *f.MaxDistanceKm <= 0 {
			return fmt.Errorf("%w: maxDistance must be positive", ErrInvalidInput)
		}
	}

	for _, t := range req.Preferences.PreferredTimes {
		if !t.IsValid() {
			return fmt.Errorf("%w: unknown preferred time %q", ErrInvalidInput, t)
		}
	}

	return nil
}
