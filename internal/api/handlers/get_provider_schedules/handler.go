package get_provider_schedules

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedules"
)

const (
	msgInvalidProviderID = "некорректный ID врача"
	msgInvalidParams     = "некорректный период, ожидается from и to в формате YYYY-MM-DD"
)

const route = "GET /providers/{id}/schedules"

var errorCases = []handlers.ErrorCase{
	{Err: schedules.ErrInvalidInput, Status: http.StatusBadRequest, Message: msgInvalidParams},
}

type Handler struct {
	service ScheduleService
	logger  Logger
}

func NewHandler(service ScheduleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers/{providerId}/schedules
// Query params: from, to (required, YYYY-MM-DD)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := strconv.ParseInt(mux.Vars(r)["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	query := r.URL.Query()
	req, err := ToServiceRequest(providerID, query.Get("from"), query.Get("to"))
	if err != nil {
		h.logger.Warn(route+" - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.service.List(r.Context(), req)
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Schedules retrieved successfully: provider_id=%d, count=%d",
		providerID, len(result.Schedules))
	handlers.RespondJSON(w, http.StatusOK, result)
}
