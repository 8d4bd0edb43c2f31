package domain

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// TimeOfDay часть дня, к которой относится слот
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayEvening   TimeOfDay = "evening"
	TimeOfDayOther     TimeOfDay = "other"
)

// IsValid проверяет, что значение входит в известный набор
func (t TimeOfDay) IsValid() bool {
	switch t {
	case TimeOfDayMorning, TimeOfDayAfternoon, TimeOfDayEvening, TimeOfDayOther:
		return true
	}
	return false
}

// TimeOfDayFor определяет часть дня по локальному часу начала
// 6-11 утро, 12-16 день, 17-20 вечер, остальное other
func TimeOfDayFor(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h >= 6 && h <= 11:
		return TimeOfDayMorning
	case h >= 12 && h <= 16:
		return TimeOfDayAfternoon
	case h >= 17 && h <= 20:
		return TimeOfDayEvening
	default:
		return TimeOfDayOther
	}
}

// Slot свободный слот для записи
type Slot struct {
	Date      time.Time        // дата в часовом поясе клиники
	Time      types.TimeString // HH:MM
	StartsAt  time.Time
	EndsAt    time.Time
	Available bool
	SlotType  TimeOfDay
}

// DateTime ISO-8601 представление начала слота
func (s Slot) DateTime() string {
	return s.StartsAt.Format(DateTimeFormat)
}

// Interval полуоткрытый интервал [Start, End)
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps проверяет строгое пересечение интервалов
func (i Interval) Overlaps(other Interval) bool {
	return other.Start.Before(i.End) && other.End.After(i.Start)
}

// Forecast ближайший свободный слот врача
type Forecast struct {
	ProviderID int64
	Date       time.Time
	Slot       Slot
}
