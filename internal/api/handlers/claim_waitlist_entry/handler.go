package claim_waitlist_entry

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/waitlist"
	"github.com/m04kA/SMC-AppointmentService/internal/service/waitlist/models"
)

const (
	msgInvalidEntryID = "некорректный ID записи листа ожидания"
	msgMissingUserID  = "отсутствует ID пользователя"
	msgNotFound       = "запись листа ожидания не найдена"
	msgForbidden      = "доступ запрещен"
	msgClaimRejected  = "предложение истекло или слот уже занят"
	msgClaimConflict  = "время приема пересекается с другим приемом"
)

const route = "PATCH /waitlist/{id}/claim"

var errorCases = []handlers.ErrorCase{
	{Err: waitlist.ErrEntryNotFound, Status: http.StatusNotFound, Message: msgNotFound},
	{Err: waitlist.ErrAppointmentNotFound, Status: http.StatusNotFound, Message: msgNotFound},
	{Err: waitlist.ErrAccessDenied, Status: http.StatusForbidden, Message: msgForbidden},
	{Err: waitlist.ErrClaimRejected, Status: http.StatusConflict, Message: msgClaimRejected},
	{Err: waitlist.ErrSlotNotFree, Status: http.StatusConflict, Message: msgClaimRejected},
	{Err: waitlist.ErrClaimConflict, Status: http.StatusConflict, Message: msgClaimConflict},
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

// Handle PATCH /api/v1/waitlist/{entryId}/claim
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

	appointment, err := h.service.AttemptClaim(r.Context(), entryID, userID)
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Slot claimed: entry_id=%d, appointment_id=%d, user_id=%d",
		entryID, appointment.ID, userID)
	handlers.RespondJSON(w, http.StatusOK, models.FromClaim(entryID, appointment))
}
