package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var testDate = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func newSchedule(start, end string, step int) *domain.ProviderSchedule {
	return &domain.ProviderSchedule{
		ID:                  1,
		ProviderID:          7,
		Date:                testDate,
		StartTime:           types.TimeString(start),
		EndTime:             types.TimeString(end),
		SlotDurationMinutes: step,
		IsAvailable:         true,
	}
}

func newAppointment(start string, minutes int, status domain.AppointmentStatus) *domain.Appointment {
	at, err := types.TimeString(start).On(testDate, time.UTC)
	if err != nil {
		panic(err)
	}
	return &domain.Appointment{
		ProviderID:  7,
		ScheduledAt: at,
		EndsAt:      at.Add(time.Duration(minutes) * time.Minute),
		Status:      status,
	}
}

func slotTimes(slots []domain.Slot) []string {
	result := make([]string, len(slots))
	for i, s := range slots {
		result[i] = s.Time.String()
	}
	return result
}

func TestGenerateSlots_BufferAroundConfirmedAppointment(t *testing.T) {
	schedule := newSchedule("09:00", "12:00", 30)
	existing := []*domain.Appointment{newAppointment("10:00", 30, domain.StatusConfirmed)}

	slots, err := GenerateSlots(schedule, 15, existing, 30, time.UTC)
	require.NoError(t, err)

	assert.Equal(t, []string{"09:00", "09:30", "10:30", "11:00", "11:30"}, slotTimes(slots))
	for _, s := range slots {
		assert.True(t, s.Available)
		assert.Equal(t, s.StartsAt.Add(30*time.Minute), s.EndsAt)
	}
}

func TestGenerateSlots_BufferExcludesNearbyStarts(t *testing.T) {
	schedule := newSchedule("09:00", "12:00", 15)
	existing := []*domain.Appointment{newAppointment("10:00", 30, domain.StatusConfirmed)}

	slots, err := GenerateSlots(schedule, 15, existing, 15, time.UTC)
	require.NoError(t, err)

	times := slotTimes(slots)
	// разница ровно в буфер допустима
	assert.Contains(t, times, "09:45")
	assert.NotContains(t, times, "10:00")
	assert.NotContains(t, times, "10:15")
	assert.Contains(t, times, "09:30")
	assert.Contains(t, times, "10:30")
}

func TestGenerateSlots_IgnoresInactiveAppointments(t *testing.T) {
	schedule := newSchedule("09:00", "10:00", 30)
	existing := []*domain.Appointment{
		newAppointment("09:00", 30, domain.StatusCancelled),
		newAppointment("09:30", 30, domain.StatusNoShow),
	}

	slots, err := GenerateSlots(schedule, 15, existing, 30, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30"}, slotTimes(slots))
}

func TestGenerateSlots_UnavailableSchedule(t *testing.T) {
	schedule := newSchedule("09:00", "12:00", 30)
	schedule.IsAvailable = false

	slots, err := GenerateSlots(schedule, 0, nil, 30, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlots_LongAppointmentMustFitBeforeEnd(t *testing.T) {
	schedule := newSchedule("09:00", "11:00", 30)

	slots, err := GenerateSlots(schedule, 0, nil, 60, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, slotTimes(slots))
}

func TestGenerateSlots_DefaultsToScheduleStep(t *testing.T) {
	schedule := newSchedule("09:00", "10:00", 20)

	slots, err := GenerateSlots(schedule, 0, nil, 0, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:20", "09:40"}, slotTimes(slots))
}

func TestGenerateSlots_InvalidStep(t *testing.T) {
	schedule := newSchedule("09:00", "10:00", 0)

	_, err := GenerateSlots(schedule, 0, nil, 30, time.UTC)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGenerateSlots_SlotTypeBuckets(t *testing.T) {
	schedule := newSchedule("05:00", "22:00", 60)

	slots, err := GenerateSlots(schedule, 0, nil, 60, time.UTC)
	require.NoError(t, err)

	byTime := make(map[string]domain.TimeOfDay, len(slots))
	for _, s := range slots {
		byTime[s.Time.String()] = s.SlotType
	}
	assert.Equal(t, domain.TimeOfDayOther, byTime["05:00"])
	assert.Equal(t, domain.TimeOfDayMorning, byTime["06:00"])
	assert.Equal(t, domain.TimeOfDayMorning, byTime["11:00"])
	assert.Equal(t, domain.TimeOfDayAfternoon, byTime["12:00"])
	assert.Equal(t, domain.TimeOfDayAfternoon, byTime["16:00"])
	assert.Equal(t, domain.TimeOfDayEvening, byTime["17:00"])
	assert.Equal(t, domain.TimeOfDayEvening, byTime["20:00"])
	assert.Equal(t, domain.TimeOfDayOther, byTime["21:00"])
}

func TestGenerateSlots_UsesClinicTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	schedule := newSchedule("09:00", "10:00", 30)

	slots, err := GenerateSlots(schedule, 0, nil, 30, loc)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "2025-03-10T09:00:00+03:00", slots[0].DateTime())
	assert.Equal(t, time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC), slots[0].StartsAt.UTC())
}

// Ни один слот не пересекается с активным приемом и не нарушает буфер
func TestGenerateSlots_Properties(t *testing.T) {
	busy := []struct {
		start   string
		minutes int
	}{
		{"08:10", 20}, {"09:40", 45}, {"11:05", 15}, {"13:00", 90}, {"15:50", 30},
	}

	for _, buffer := range []int{0, 5, 10, 15, 30} {
		for _, step := range []int{10, 15, 20, 30} {
			for _, duration := range []int{15, 30, 45, 60} {
				existing := make([]*domain.Appointment, 0, len(busy))
				for _, b := range busy {
					existing = append(existing, newAppointment(b.start, b.minutes, domain.StatusConfirmed))
				}

				slots, err := GenerateSlots(newSchedule("08:00", "17:00", step), buffer, existing, duration, time.UTC)
				require.NoError(t, err)

				for _, s := range slots {
					candidate := domain.Interval{Start: s.StartsAt, End: s.EndsAt}
					assert.False(t, HasOverlap(candidate, existing), "slot %s overlaps", s.Time)
					assert.False(t, ViolatesBuffer(s.StartsAt, buffer, existing), "slot %s violates buffer", s.Time)
				}
			}
		}
	}
}

func TestHasOverlap_AdjacentIsNotOverlap(t *testing.T) {
	existing := []*domain.Appointment{newAppointment("10:00", 30, domain.StatusRequested)}

	at := func(s string) time.Time {
		v, _ := types.TimeString(s).On(testDate, time.UTC)
		return v
	}

	assert.False(t, HasOverlap(domain.Interval{Start: at("09:30"), End: at("10:00")}, existing))
	assert.False(t, HasOverlap(domain.Interval{Start: at("10:30"), End: at("11:00")}, existing))
	assert.True(t, HasOverlap(domain.Interval{Start: at("10:20"), End: at("10:40")}, existing))
	assert.True(t, HasOverlap(domain.Interval{Start: at("09:00"), End: at("12:00")}, existing))
}

func TestDropPast(t *testing.T) {
	slots, err := GenerateSlots(newSchedule("09:00", "11:00", 30), 0, nil, 30, time.UTC)
	require.NoError(t, err)

	now := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, []string{"10:00", "10:30"}, slotTimes(DropPast(slots, now)))
}
