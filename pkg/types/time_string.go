package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimeString возвращается при некорректном формате времени
var ErrInvalidTimeString = errors.New("invalid time string format")

const minutesPerDay = 24 * 60

// TimeString время суток в формате HH:MM (колонки TIME в PostgreSQL)
type TimeString string

// NewTimeString создает TimeString из часов и минут переданного времени
func NewTimeString(t time.Time) TimeString {
	return TimeString(t.Format("15:04"))
}

// NewTimeStringFromString парсит строку HH:MM или HH:MM:SS
func NewTimeStringFromString(s string) (TimeString, error) {
	ts := TimeString(s)
	if err := ts.Validate(); err != nil {
		return "", err
	}
	return ts.normalize(), nil
}

// Validate проверяет формат времени
func (t TimeString) Validate() error {
	if _, err := t.parse(); err != nil {
		return err
	}
	return nil
}

// IsZero возвращает true, если время не задано
func (t TimeString) IsZero() bool {
	return t == ""
}

// String возвращает время в формате HH:MM
func (t TimeString) String() string {
	return string(t.normalize())
}

// Minutes возвращает количество минут от начала суток
func (t TimeString) Minutes() (int, error) {
	return t.parse()
}

// AddMinutes возвращает время, сдвинутое на указанное количество минут
// Переход через полночь считается ошибкой
func (t TimeString) AddMinutes(minutes int) (TimeString, error) {
	m, err := t.parse()
	if err != nil {
		return "", err
	}
	total := m + minutes
	if total < 0 || total > minutesPerDay {
		return "", fmt.Errorf("%w: %s %+d minutes is out of day range", ErrInvalidTimeString, t, minutes)
	}
	return fromMinutes(total), nil
}

// IsBefore возвращает true, если t строго раньше other
func (t TimeString) IsBefore(other TimeString) bool {
	a, errA := t.parse()
	b, errB := other.parse()
	return errA == nil && errB == nil && a < b
}

// IsAfter возвращает true, если t строго позже other
func (t TimeString) IsAfter(other TimeString) bool {
	a, errA := t.parse()
	b, errB := other.parse()
	return errA == nil && errB == nil && a > b
}

// On возвращает момент времени на указанную дату в указанной временной зоне
func (t TimeString) On(date time.Time, loc *time.Location) (time.Time, error) {
	m, err := t.parse()
	if err != nil {
		return time.Time{}, err
	}
	y, mon, d := date.Date()
	return time.Date(y, mon, d, 0, 0, 0, 0, loc).Add(time.Duration(m) * time.Minute), nil
}

// Scan реализует sql.Scanner (PostgreSQL отдает TIME как "15:04:05")
func (t *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*t = ""
		return nil
	case string:
		parsed, err := NewTimeStringFromString(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		parsed, err := NewTimeStringFromString(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case time.Time:
		*t = NewTimeString(v)
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidTimeString, src)
	}
}

// Value реализует driver.Valuer
func (t TimeString) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.String(), nil
}

func (t TimeString) parse() (int, error) {
	s := string(t)
	// HH:MM:SS -> HH:MM
	if strings.Count(s, ":") == 2 {
		s = s[:strings.LastIndex(s, ":")]
	}
	parsed, err := time.Parse("15:04", s)
	if err != nil {
		// 24:00 допустимо как конец рабочего дня
		if s == "24:00" {
			return minutesPerDay, nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeString, string(t))
	}
	return parsed.Hour()*60 + parsed.Minute(), nil
}

func (t TimeString) normalize() TimeString {
	m, err := t.parse()
	if err != nil {
		return t
	}
	return fromMinutes(m)
}

func fromMinutes(m int) TimeString {
	return TimeString(fmt.Sprintf("%02d:%02d", m/60, m%60))
}
