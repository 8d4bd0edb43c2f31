package withdraw_waitlist_entry

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/waitlist"
)

const (
	msgInvalidEntryID    = "некорректный ID записи листа ожидания"
	msgMissingUserID     = "отсутствует ID пользователя"
	msgNotFound          = "запись листа ожидания не найдена"
	msgForbidden         = "доступ запрещен"
	msgInvalidTransition = "запись уже закрыта"
)

const route = "DELETE /waitlist/{id}"

var errorCases = []handlers.ErrorCase{
	{Err: waitlist.ErrEntryNotFound, Status: http.StatusNotFound, Message: msgNotFound},
	{Err: waitlist.ErrAccessDenied, Status: http.StatusForbidden, Message: msgForbidden},
	{Err: waitlist.ErrInvalidTransition, Status: http.StatusUnprocessableEntity, Message: msgInvalidTransition},
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

// Handle DELETE /api/v1/waitlist/{entryId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	entryID, err := strconv.ParseInt(mux.Vars(r)["entryId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid entry ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidEntryID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn(route + " - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	if err := h.service.Withdraw(r.Context(), entryID, userID); err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Entry withdrawn: entry_id=%d, user_id=%d", entryID, userID)
	handlers.RespondJSON(w, http.StatusNoContent, nil)
}
