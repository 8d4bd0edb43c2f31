package get_provider_schedules

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedules/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
func ToServiceRequest(providerID int64, fromStr, toStr string) (*models.ListSchedulesRequest, error) {
	from, err := time.Parse(domain.DateFormat, fromStr)
	if err != nil {
		return nil, fmt.Errorf("invalid from: %w", err)
	}
	to, err := time.Parse(domain.DateFormat, toStr)
	if err != nil {
		return nil, fmt.Errorf("invalid to: %w", err)
	}

	return &models.ListSchedulesRequest{
		ProviderID: providerID,
		From:       from,
		To:         to,
	}, nil
}
