package update_appointment

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
)

const (
	msgInvalidAppointmentID = "некорректный ID приема"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgInvalidData          = "некорректная причина визита или заметки"
	msgNotFound             = "прием не найден"
	msgForbidden            = "доступ запрещен"
	msgNotActive            = "прием уже завершен или отменен"
)

const route = "PATCH /appointments/{id}"

var errorCases = []handlers.ErrorCase{
	{Err: appointments.ErrInvalidInput, Status: http.StatusBadRequest, Message: msgInvalidData},
	{Err: appointments.ErrAppointmentNotFound, Status: http.StatusNotFound, Message: msgNotFound},
	{Err: appointments.ErrAccessDenied, Status: http.StatusForbidden, Message: msgForbidden},
	{Err: appointments.ErrInvalidTransition, Status: http.StatusUnprocessableEntity, Message: msgNotActive},
}

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/appointments/{appointmentId}
// Body: reasonForVisit, notes (оба опциональны, хотя бы одно обязательно)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := strconv.ParseInt(mux.Vars(r)["appointmentId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn(route + " - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req UpdateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn(route+" - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.UpdateDetails(r.Context(), appointmentID, req.ToServiceRequest(userID))
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Appointment updated: appointment_id=%d, user_id=%d", appointmentID, userID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
