package get_provider

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/directory"
)

const (
	msgInvalidProviderID = "некорректный ID врача"
	msgNotFound          = "врач не найден"
)

const route = "GET /providers/{id}"

var errorCases = []handlers.ErrorCase{
	{Err: directory.ErrProviderNotFound, Status: http.StatusNotFound, Message: msgNotFound},
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

// Handle GET /api/v1/providers/{providerId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := strconv.ParseInt(mux.Vars(r)["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	provider, err := h.service.GetProvider(r.Context(), providerID)
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Provider retrieved: provider_id=%d", providerID)
	handlers.RespondJSON(w, http.StatusOK, provider)
}
