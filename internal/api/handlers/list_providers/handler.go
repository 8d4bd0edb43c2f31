package list_providers

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/directory"
)

const (
	msgInvalidParams = "некорректные параметры поиска врачей"
)

const route = "GET /providers"

var errorCases = []handlers.ErrorCase{
	{Err: directory.ErrInvalidInput, Status: http.StatusBadRequest, Message: msgInvalidParams},
}

type Handler struct {
	service DirectoryService
	logger  Logger
}

func NewHandler(service DirectoryService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/providers
// Query params: specialty, insurance, lat, lng, radiusKm, minRating, page, perPage (все опциональны)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := ParseQuery(r.URL.Query())
	if err != nil {
		h.logger.Warn(route+" - Invalid query: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	result, err := h.service.ListProviders(r.Context(), req)
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Providers listed: page=%d, count=%d", result.Page, len(result.Providers))
	handlers.RespondJSON(w, http.StatusOK, result)
}
