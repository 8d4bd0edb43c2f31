package get_provider_appointments

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
// startDate и endDate принимаются в формате ISO 8601
func ToServiceRequest(providerID, userID int64, startDateStr, endDateStr, statusStr string) (*models.GetProviderAppointmentsRequest, error) {
	req := &models.GetProviderAppointmentsRequest{
		UserID:     userID,
		ProviderID: providerID,
	}

	if startDateStr != "" {
		startDate, err := time.Parse(time.RFC3339, startDateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid startDate: %w", err)
		}
		req.StartDate = &startDate
	}

	if endDateStr != "" {
		endDate, err := time.Parse(time.RFC3339, endDateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid endDate: %w", err)
		}
		req.EndDate = &endDate
	}

	if statusStr != "" {
		if _, err := models.ToDomainAppointmentStatus(statusStr); err != nil {
			return nil, err
		}
		req.Status = &statusStr
	}

	return req, nil
}
