package upsert_provider_schedule

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/schedules"
)

const (
	msgInvalidProviderID  = "некорректный ID врача"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgNotFound           = "врач не найден"
	msgForbidden          = "доступ запрещен"
	msgInvalidData        = "некорректные данные расписания"
)

const route = "PUT /providers/{id}/schedules/{date}"

var errorCases = []handlers.ErrorCase{
	{Err: schedules.ErrAccessDenied, Status: http.StatusForbidden, Message: msgForbidden},
	{Err: schedules.ErrInvalidInput, Status: http.StatusBadRequest, Message: msgInvalidData},
	{Err: schedules.ErrProviderNotFound, Status: http.StatusNotFound, Message: msgNotFound},
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

// Handle PUT /api/v1/providers/{providerId}/schedules/{date}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	providerID, err := strconv.ParseInt(vars["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}
	date := vars["date"]

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn(route + " - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req UpsertScheduleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn(route+" - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Upsert(r.Context(), req.ToServiceRequest(userID, providerID, date))
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Schedule saved: provider_id=%d, date=%s, schedule_id=%d",
		providerID, date, result.ID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
