package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// WaitlistStatus статус записи в листе ожидания
type WaitlistStatus string

const (
	WaitlistActive    WaitlistStatus = "active"
	WaitlistNotified  WaitlistStatus = "notified"
	WaitlistClaimed   WaitlistStatus = "claimed"
	WaitlistExpired   WaitlistStatus = "expired"
	WaitlistCancelled WaitlistStatus = "cancelled"
)

// WaitlistEvent событие листа ожидания
type WaitlistEvent string

const (
	WaitlistEventNotify   WaitlistEvent = "notify"
	WaitlistEventClaim    WaitlistEvent = "claim"
	WaitlistEventExpire   WaitlistEvent = "expire"
	WaitlistEventWithdraw WaitlistEvent = "withdraw"
)

// waitlistTransitions таблица переходов листа ожидания
// active -> expired используется, когда слот забрал другой пациент
var waitlistTransitions = map[WaitlistStatus]map[WaitlistEvent]WaitlistStatus{
	WaitlistActive: {
		WaitlistEventNotify:   WaitlistNotified,
		WaitlistEventExpire:   WaitlistExpired,
		WaitlistEventWithdraw: WaitlistCancelled,
	},
	WaitlistNotified: {
		WaitlistEventClaim:    WaitlistClaimed,
		WaitlistEventExpire:   WaitlistExpired,
		WaitlistEventWithdraw: WaitlistCancelled,
	},
}

// NextWaitlistStatus возвращает статус после события или ErrInvalidTransition
func NextWaitlistStatus(from WaitlistStatus, event WaitlistEvent) (WaitlistStatus, error) {
	if next, ok := waitlistTransitions[from][event]; ok {
		return next, nil
	}
	return "", fmt.Errorf("%w: cannot %s waitlist entry in status %s", ErrInvalidTransition, event, from)
}

// ManualPriorityKey ключ ручной надбавки приоритета в metadata
const ManualPriorityKey = "manual_priority"

// WaitlistMetadata произвольные данные записи, хранится в jsonb
type WaitlistMetadata map[string]interface{}

// ManualPriority надбавка оператора, 0 если не задана или не число
func (m WaitlistMetadata) ManualPriority() int {
	switch v := m[ManualPriorityKey].(type) {
	case float64:
		return int(math.Floor(v))
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	}
	return 0
}

func (m WaitlistMetadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *WaitlistMetadata) Scan(src interface{}) error {
	*m = WaitlistMetadata{}
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("metadata: unsupported type %T", src)
	}
}

// WaitlistEntry запись в листе ожидания
type WaitlistEntry struct {
	ID                   int64
	PatientID            int64
	ProviderID           int64
	AppointmentTypeID    int64
	PreferredDateStart   time.Time
	PreferredDateEnd     time.Time
	PreferredTimeOfDay   []TimeOfDay
	Priority             int
	Status               WaitlistStatus
	NotifiedAt           *time.Time
	ExpiresAt            *time.Time
	OfferedAppointmentID *int64 // освободившийся прием, предложенный пациенту
	Notes                *string
	Metadata             WaitlistMetadata
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CoversDate входит ли дата в желаемый диапазон (включительно, сравниваются только даты)
func (e *WaitlistEntry) CoversDate(date time.Time) bool {
	d := dateOnly(date)
	return !d.Before(dateOnly(e.PreferredDateStart)) && !d.After(dateOnly(e.PreferredDateEnd))
}

// PrefersTimeOfDay входит ли часть дня в предпочтения пациента
func (e *WaitlistEntry) PrefersTimeOfDay(t TimeOfDay) bool {
	for _, p := range e.PreferredTimeOfDay {
		if p == t {
			return true
		}
	}
	return false
}

// CanClaim пациент может забрать слот только в статусе notified до истечения окна
func (e *WaitlistEntry) CanClaim(now time.Time) bool {
	return e.Status == WaitlistNotified && e.ExpiresAt != nil && now.Before(*e.ExpiresAt)
}

// DaysWaiting дни ожидания с момента создания записи, дробные
func (e *WaitlistEntry) DaysWaiting(now time.Time) float64 {
	d := now.Sub(e.CreatedAt).Hours() / 24
	if d < 0 {
		return 0
	}
	return d
}

// FreedSlot освободившийся прием, который разыгрывается через лист ожидания
type FreedSlot struct {
	AppointmentID     int64
	ProviderID        int64
	AppointmentTypeID int64
	ScheduledAt       time.Time // в часовом поясе клиники
	SlotType          TimeOfDay
}

// NewFreedSlot слот отмененного приема в часовом поясе loc
func NewFreedSlot(a *Appointment, loc *time.Location) FreedSlot {
	local := a.ScheduledAt.In(loc)
	return FreedSlot{
		AppointmentID:     a.ID,
		ProviderID:        a.ProviderID,
		AppointmentTypeID: a.AppointmentTypeID,
		ScheduledAt:       local,
		SlotType:          TimeOfDayFor(local),
	}
}

// Matches претендует ли запись на освободившийся слот
func (e *WaitlistEntry) Matches(slot FreedSlot) bool {
	return e.ProviderID == slot.ProviderID &&
		e.AppointmentTypeID == slot.AppointmentTypeID &&
		e.CoversDate(slot.ScheduledAt) &&
		e.PrefersTimeOfDay(slot.SlotType)
}

// WaitlistCandidatesFilter выборка претендентов на слот
type WaitlistCandidatesFilter struct {
	ProviderID        int64
	AppointmentTypeID int64
	Date              time.Time
	SlotType          TimeOfDay
	Statuses          []WaitlistStatus
	ExcludeID         *int64
	// из notified записей остаются только держатели предложения по этому приему
	OfferedAppointmentID *int64
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
