package get_provider_availability

import (
	"strconv"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SlotResponse HTTP модель слота
type SlotResponse struct {
	Date      string `json:"date"`     // "2025-10-15"
	Time      string `json:"time"`     // "09:30"
	DateTime  string `json:"datetime"` // ISO 8601
	Available bool   `json:"available"`
	SlotType  string `json:"slotType"` // morning, afternoon, evening, other
}

// AvailabilityResponse HTTP ответ со слотами врача на дату
type AvailabilityResponse struct {
	ProviderID int64          `json:"providerId"`
	Date       string         `json:"date"`
	Slots      []SlotResponse `json:"slots"`
}

// ParseQuery парсит date и appointmentTypeId
func ParseQuery(dateStr, appointmentTypeIDStr string) (time.Time, *int64, error) {
	date, err := time.Parse(domain.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, nil, err
	}

	if appointmentTypeIDStr == "" {
		return date, nil, nil
	}
	id, err := strconv.ParseInt(appointmentTypeIDStr, 10, 64)
	if err != nil {
		return time.Time{}, nil, err
	}
	return date, &id, nil
}

// FromDomainSlots конвертирует слоты в HTTP ответ
func FromDomainSlots(providerID int64, date time.Time, slots []domain.Slot) *AvailabilityResponse {
	resp := &AvailabilityResponse{
		ProviderID: providerID,
		Date:       date.Format(domain.DateFormat),
		Slots:      make([]SlotResponse, 0, len(slots)),
	}

	for _, s := range slots {
		resp.Slots = append(resp.Slots, SlotResponse{
			Date:      s.Date.Format(domain.DateFormat),
			Time:      s.Time.String(),
			DateTime:  s.DateTime(),
			Available: s.Available,
			SlotType:  string(s.SlotType),
		})
	}

	return resp
}
