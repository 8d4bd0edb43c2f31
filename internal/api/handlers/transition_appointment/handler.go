package transition_appointment

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
	msgInvalidData          = "некорректное событие или данные"
	msgNotFound             = "прием не найден"
	msgForbidden            = "доступ запрещен"
	msgInvalidTransition    = "событие недопустимо для текущего статуса приема"
	msgPolicyViolation      = "отмена возможна не позднее чем за 24 часа до приема"
)

const route = "PATCH /appointments/{id}/{event}"

var errorCases = []handlers.ErrorCase{
	{Err: appointments.ErrInvalidInput, Status: http.StatusBadRequest, Message: msgInvalidData},
	{Err: appointments.ErrAppointmentNotFound, Status: http.StatusNotFound, Message: msgNotFound},
	{Err: appointments.ErrAccessDenied, Status: http.StatusForbidden, Message: msgForbidden},
	{Err: appointments.ErrPolicyViolation, Status: http.StatusUnprocessableEntity, Message: msgPolicyViolation},
	{Err: appointments.ErrInvalidTransition, Status: http.StatusUnprocessableEntity, Message: msgInvalidTransition},
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

// Handle PATCH /api/v1/appointments/{appointmentId}/{event}
// event: confirm, complete, cancel, mark_no_show
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	appointmentID, err := strconv.ParseInt(vars["appointmentId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}
	event := vars["event"]

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn(route + " - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req TransitionAppointmentRequest
	if r.ContentLength > 0 {
		if err := handlers.DecodeJSON(r, &req); err != nil {
			h.logger.Warn(route+" - Invalid request body: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)
			return
		}
	}

	result, err := h.service.Transition(r.Context(), appointmentID, req.ToServiceRequest(userID, event))
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Event applied successfully: appointment_id=%d, event=%s, status=%s",
		appointmentID, event, result.Status)
	handlers.RespondJSON(w, http.StatusOK, result)
}
