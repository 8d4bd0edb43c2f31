package notify_waitlist

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/waitlist"
	"github.com/m04kA/SMC-AppointmentService/internal/service/waitlist/models"
)

const (
	msgInvalidAppointmentID = "некорректный ID приема"
	msgNotFound             = "прием не найден"
	msgSlotNotFree          = "прием не освобожден или уже прошел"
)

const route = "POST /appointments/{id}/waitlist/notify"

var errorCases = []handlers.ErrorCase{
	{Err: waitlist.ErrAppointmentNotFound, Status: http.StatusNotFound, Message: msgNotFound},
	{Err: waitlist.ErrSlotNotFree, Status: http.StatusConflict, Message: msgSlotNotFree},
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

// Handle POST /api/v1/appointments/{appointmentId}/waitlist/notify
// Повторный вызов возвращает уже действующее предложение
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := strconv.ParseInt(mux.Vars(r)["appointmentId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	entry, err := h.service.NotifyNext(r.Context(), appointmentID)
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	resp := &models.NotifyResponse{Notified: entry != nil, Entry: models.FromDomainEntry(entry)}
	h.logger.Info(route+" - Done: appointment_id=%d, notified=%t",
		appointmentID, resp.Notified)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
