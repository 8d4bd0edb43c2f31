package recompute_waitlist_priority

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/waitlist"
	"github.com/m04kA/SMC-AppointmentService/internal/service/waitlist/models"
)

const (
	msgInvalidEntryID = "некорректный ID записи листа ожидания"
	msgNotFound       = "запись листа ожидания не найдена"
)

const route = "POST /waitlist/{id}/priority"

var errorCases = []handlers.ErrorCase{
	{Err: waitlist.ErrEntryNotFound, Status: http.StatusNotFound, Message: msgNotFound},
}

type Handler struct {
	service WaitlistService
	logger  Logger
}

func NewHandler(service WaitlistService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/waitlist/{entryId}/priority
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(mux.Vars(r)["entryId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid entry ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEntryID)
		return
	}

	entry, err := h.service.RecomputePriority(r.Context(), entryID)
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Priority recomputed: entry_id=%d, priority=%d", entryID, entry.Priority)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainEntry(entry))
}
