package get_next_available

import (
	"strconv"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// NextAvailableResponse HTTP ответ прогноза
// Available = false, если в окне прогноза свободных слотов нет
type NextAvailableResponse struct {
	ProviderID int64   `json:"providerId"`
	Available  bool    `json:"available"`
	Date       *string `json:"date,omitempty"`
	Time       *string `json:"time,omitempty"`
	DateTime   *string `json:"datetime,omitempty"`
	SlotType   *string `json:"slotType,omitempty"`
}

// ParseQuery парсит from и appointmentTypeId
// Без from прогноз строится от сегодняшней даты клиники
func ParseQuery(fromStr, appointmentTypeIDStr string, now time.Time, loc *time.Location) (time.Time, *int64, error) {
	var from time.Time
	if fromStr == "" {
		y, m, d := now.In(loc).Date()
		from = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse(domain.DateFormat, fromStr)
		if err != nil {
			return time.Time{}, nil, err
		}
		from = parsed
	}

	if appointmentTypeIDStr == "" {
		return from, nil, nil
	}
	id, err := strconv.ParseInt(appointmentTypeIDStr, 10, 64)
	if err != nil {
		return time.Time{}, nil, err
	}
	return from, &id, nil
}

// FromDomainForecast конвертирует прогноз в HTTP ответ
func FromDomainForecast(providerID int64, f *domain.Forecast) *NextAvailableResponse {
	resp := &NextAvailableResponse{ProviderID: providerID}
	if f == nil {
		return resp
	}

	date := f.Date.Format(domain.DateFormat)
	slotTime := f.Slot.Time.String()
	dateTime := f.Slot.DateTime()
	slotType := string(f.Slot.SlotType)

	resp.Available = true
	resp.Date = &date
	resp.Time = &slotTime
	resp.DateTime = &dateTime
	resp.SlotType = &slotType
	return resp
}
