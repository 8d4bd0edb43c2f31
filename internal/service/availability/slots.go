package availability

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// GenerateSlots генерирует свободные слоты врача на день расписания
// Кандидаты идут от start_time с шагом slot_duration_minutes, длительность кандидата равна durationMinutes
// Кандидат, который не помещается до end_time, не предлагается
// Учитываются только активные приемы (requested, confirmed)
func GenerateSlots(
	schedule *domain.ProviderSchedule,
	bufferMinutes int,
	existing []*domain.Appointment,
	durationMinutes int,
	loc *time.Location,
) ([]domain.Slot, error) {
	if schedule == nil || !schedule.IsAvailable {
		return []domain.Slot{}, nil
	}
	if schedule.SlotDurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive, got %d", ErrInvalidInput, schedule.SlotDurationMinutes)
	}
	if durationMinutes <= 0 {
		durationMinutes = schedule.SlotDurationMinutes
	}

	dayStart, dayEnd, err := schedule.Bounds(loc)
	if err != nil {
		return nil, fmt.Errorf("%w: schedule bounds: %v", ErrInvalidInput, err)
	}

	active := activeOnly(existing)
	step := time.Duration(schedule.SlotDurationMinutes) * time.Minute
	duration := time.Duration(durationMinutes) * time.Minute

	slots := make([]domain.Slot, 0)
	for start := dayStart; start.Before(dayEnd); start = start.Add(step) {
		end := start.Add(duration)
		if end.After(dayEnd) {
			break
		}

		candidate := domain.Interval{Start: start, End: end}
		if HasOverlap(candidate, active) || ViolatesBuffer(start, bufferMinutes, active) {
			continue
		}

		slots = append(slots, domain.Slot{
			Date:      schedule.Date,
			Time:      types.NewTimeString(start),
			StartsAt:  start,
			EndsAt:    end,
			Available: true,
			SlotType:  domain.TimeOfDayFor(start),
		})
	}

	return slots, nil
}

// HasOverlap проверяет, пересекается ли интервал с каким-либо активным приемом
// Приемы, которые граничат с интервалом, пересечением не считаются
func HasOverlap(candidate domain.Interval, existing []*domain.Appointment) bool {
	for _, a := range existing {
		if !a.IsActive() {
			continue
		}
		if a.Interval().Overlaps(candidate) {
			return true
		}
	}
	return false
}

// ViolatesBuffer проверяет, что начало лежит ближе bufferMinutes к началу какого-либо активного приема
func ViolatesBuffer(start time.Time, bufferMinutes int, existing []*domain.Appointment) bool {
	if bufferMinutes <= 0 {
		return false
	}
	buffer := time.Duration(bufferMinutes) * time.Minute
	for _, a := range existing {
		if !a.IsActive() {
			continue
		}
		diff := a.ScheduledAt.Sub(start)
		if diff < 0 {
			diff = -diff
		}
		if diff < buffer {
			return true
		}
	}
	return false
}

// DropPast оставляет слоты, которые начинаются позже now
func DropPast(slots []domain.Slot, now time.Time) []domain.Slot {
	result := make([]domain.Slot, 0, len(slots))
	for _, slot := range slots {
		if slot.StartsAt.After(now) {
			result = append(result, slot)
		}
	}
	return result
}

// GroupByLocalDate раскладывает приемы по датам в часовом поясе клиники
func GroupByLocalDate(appointments []*domain.Appointment, loc *time.Location) map[string][]*domain.Appointment {
	result := make(map[string][]*domain.Appointment)
	for _, a := range appointments {
		key := a.ScheduledAt.In(loc).Format(domain.DateFormat)
		result[key] = append(result[key], a)
	}
	return result
}

func activeOnly(appointments []*domain.Appointment) []*domain.Appointment {
	result := make([]*domain.Appointment, 0, len(appointments))
	for _, a := range appointments {
		if a.IsActive() {
			result = append(result, a)
		}
	}
	return result
}
