package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextWaitlistStatus(t *testing.T) {
	next, err := NextWaitlistStatus(WaitlistActive, WaitlistEventNotify)
	require.NoError(t, err)
	assert.Equal(t, WaitlistNotified, next)

	next, err = NextWaitlistStatus(WaitlistNotified, WaitlistEventClaim)
	require.NoError(t, err)
	assert.Equal(t, WaitlistClaimed, next)

	_, err = NextWaitlistStatus(WaitlistActive, WaitlistEventClaim)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = NextWaitlistStatus(WaitlistClaimed, WaitlistEventExpire)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = NextWaitlistStatus(WaitlistExpired, WaitlistEventNotify)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWaitlistEntry_CanClaim(t *testing.T) {
	notifiedAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	expiresAt := notifiedAt.Add(DefaultClaimWindow)
	e := &WaitlistEntry{Status: WaitlistNotified, NotifiedAt: &notifiedAt, ExpiresAt: &expiresAt}

	assert.True(t, e.CanClaim(notifiedAt.Add(14*time.Minute)))
	assert.False(t, e.CanClaim(expiresAt))
	assert.False(t, e.CanClaim(notifiedAt.Add(16*time.Minute)))

	e.Status = WaitlistActive
	assert.False(t, e.CanClaim(notifiedAt))
}

func TestWaitlistEntry_Matches(t *testing.T) {
	loc := time.UTC
	e := &WaitlistEntry{
		ProviderID:         1,
		AppointmentTypeID:  2,
		PreferredDateStart: time.Date(2025, 3, 10, 0, 0, 0, 0, loc),
		PreferredDateEnd:   time.Date(2025, 3, 12, 0, 0, 0, 0, loc),
		PreferredTimeOfDay: []TimeOfDay{TimeOfDayMorning},
	}

	slot := FreedSlot{ProviderID: 1, AppointmentTypeID: 2, ScheduledAt: time.Date(2025, 3, 12, 9, 30, 0, 0, loc), SlotType: TimeOfDayMorning}
	assert.True(t, e.Matches(slot))

	afternoon := slot
	afternoon.SlotType = TimeOfDayAfternoon
	assert.False(t, e.Matches(afternoon))

	outOfRange := slot
	outOfRange.ScheduledAt = time.Date(2025, 3, 13, 9, 30, 0, 0, loc)
	assert.False(t, e.Matches(outOfRange))

	otherType := slot
	otherType.AppointmentTypeID = 5
	assert.False(t, e.Matches(otherType))
}

func TestWaitlistMetadata_ManualPriority(t *testing.T) {
	var m WaitlistMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"manual_priority": 7}`), &m))
	assert.Equal(t, 7, m.ManualPriority())

	assert.Equal(t, 0, WaitlistMetadata{}.ManualPriority())
	assert.Equal(t, 0, WaitlistMetadata{ManualPriorityKey: "high"}.ManualPriority())
	assert.Equal(t, -3, WaitlistMetadata{ManualPriorityKey: -3}.ManualPriority())
}

func TestTimeOfDayFor(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2025, 3, 10, h, 0, 0, 0, time.UTC) }

	assert.Equal(t, TimeOfDayOther, TimeOfDayFor(at(5)))
	assert.Equal(t, TimeOfDayMorning, TimeOfDayFor(at(6)))
	assert.Equal(t, TimeOfDayMorning, TimeOfDayFor(at(11)))
	assert.Equal(t, TimeOfDayAfternoon, TimeOfDayFor(at(12)))
	assert.Equal(t, TimeOfDayAfternoon, TimeOfDayFor(at(16)))
	assert.Equal(t, TimeOfDayEvening, TimeOfDayFor(at(17)))
	assert.Equal(t, TimeOfDayEvening, TimeOfDayFor(at(20)))
	assert.Equal(t, TimeOfDayOther, TimeOfDayFor(at(21)))
}

func TestNewConfirmationNumber_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 5000)
	for i := 0; i < 5000; i++ {
		n, err := NewConfirmationNumber()
		require.NoError(t, err)
		require.True(t, IsValidConfirmationNumber(n), n)
		_, dup := seen[n]
		require.False(t, dup, "duplicate confirmation number %s", n)
		seen[n] = struct{}{}
	}
}
