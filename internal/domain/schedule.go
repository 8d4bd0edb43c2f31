package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// ProviderSchedule рабочий день врача
// На пару (provider_id, date) приходится не более одного расписания
type ProviderSchedule struct {
	ID                  int64
	ProviderID          int64
	Date                time.Time
	StartTime           types.TimeString
	EndTime             types.TimeString
	SlotDurationMinutes int
	IsAvailable         bool
	Notes               *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Bounds границы рабочего дня в часовом поясе loc
func (s *ProviderSchedule) Bounds(loc *time.Location) (time.Time, time.Time, error) {
	start, err := s.StartTime.On(s.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := s.EndTime.On(s.Date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}
