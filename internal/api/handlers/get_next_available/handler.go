package get_next_available

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/availability"
)

const (
	msgInvalidProviderID = "некорректный ID врача"
	msgInvalidQuery      = "некорректные параметры запроса, дата ожидается в формате YYYY-MM-DD"
	msgNotFound          = "врач или тип приема не найден"
)

const route = "GET /providers/{id}/next-available"

var errorCases = []handlers.ErrorCase{
	{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: msgNotFound},
}

type Handler struct {
	service      AvailabilityService
	timeProvider TimeProvider
	logger       Logger
}

func NewHandler(service AvailabilityService, timeProvider TimeProvider, logger Logger) *Handler {
	return &Handler{
		service:      service,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/next-available
// Query params: from (опционально, YYYY-MM-DD), appointmentTypeId (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := strconv.ParseInt(mux.Vars(r)["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	query := r.URL.Query()
	from, appointmentTypeID, err := ParseQuery(query.Get("from"), query.Get("appointmentTypeId"),
		h.timeProvider.Now(), h.service.Location())
	if err != nil {
		h.logger.Warn(route+" - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	forecast, err := h.service.ForecastNextAvailable(r.Context(), providerID, from, appointmentTypeID)
	if err != nil {
		if errors.Is(err, availability.ErrNoAvailability) {
			h.logger.Info(route+" - No availability: provider_id=%d", providerID)
			handlers.RespondJSON(w, http.StatusOK, FromDomainForecast(providerID, nil))
			return
		}
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Forecast ready: provider_id=%d, date=%s",
		providerID, forecast.Date.Format(domain.DateFormat))
	handlers.RespondJSON(w, http.StatusOK, FromDomainForecast(providerID, forecast))
}
