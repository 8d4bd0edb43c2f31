package waitlist

import (
	"math"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	pointsPerWaitingDay = 2
	pointsPerCompleted  = 5
	penaltyPerNoShow    = 10
)

// CalculatePriority приоритет записи листа ожидания
// floor(days*2) + completed*5 - no_show*10 + manual
func CalculatePriority(daysWaiting float64, history domain.PatientHistory, manualBoost int) int {
	if daysWaiting < 0 {
		daysWaiting = 0
	}
	return int(math.Floor(daysWaiting*pointsPerWaitingDay)) +
		history.CompletedCount*pointsPerCompleted -
		history.NoShowCount*penaltyPerNoShow +
		manualBoost
}

// PriorityFor приоритет записи на момент now
func PriorityFor(e *domain.WaitlistEntry, history domain.PatientHistory, now time.Time) int {
	return CalculatePriority(e.DaysWaiting(now), history, e.Metadata.ManualPriority())
}
