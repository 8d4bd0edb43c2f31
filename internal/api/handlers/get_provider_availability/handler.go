package get_provider_availability

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	msgInvalidProviderID = "некорректный ID врача"
	msgMissingDate       = "дата обязательна"
	msgInvalidQuery      = "некорректные параметры запроса, дата ожидается в формате YYYY-MM-DD"
	msgNotFound          = "врач или тип приема не найден"
	msgInvalidData       = "некорректные данные расписания"
)

const route = "GET /providers/{id}/availability"

var errorCases = []handlers.ErrorCase{
	{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: msgNotFound},
	{Err: domain.ErrValidation, Status: http.StatusBadRequest, Message: msgInvalidData},
}

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/availability
// Query params: date (required, YYYY-MM-DD), appointmentTypeId (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := strconv.ParseInt(mux.Vars(r)["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn(route + " - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	date, appointmentTypeID, err := ParseQuery(dateStr, r.URL.Query().Get("appointmentTypeId"))
	if err != nil {
		h.logger.Warn(route+" - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	slots, err := h.service.GetSlots(r.Context(), providerID, date, appointmentTypeID)
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Slots retrieved successfully: provider_id=%d, date=%s, slots_count=%d",
		providerID, dateStr, len(slots))
	handlers.RespondJSON(w, http.StatusOK, FromDomainSlots(providerID, date, slots))
}
