package get_provider_appointments

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
)

const (
	msgInvalidProviderID = "некорректный ID врача"
	msgMissingUserID     = "отсутствует ID пользователя"
	msgInvalidParams     = "некорректные параметры запроса"
	msgForbidden         = "доступ запрещен"
)

const route = "GET /providers/{id}/appointments"

var errorCases = []handlers.ErrorCase{
	{Err: appointments.ErrAccessDenied, Status: http.StatusForbidden, Message: msgForbidden},
	{Err: appointments.ErrInvalidInput, Status: http.StatusBadRequest, Message: msgInvalidParams},
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

// Handle GET /api/v1/providers/{providerId}/appointments
// Query params: startDate, endDate, status (опционально)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, err := strconv.ParseInt(mux.Vars(r)["providerId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid provider ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidProviderID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn(route + " - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	query := r.URL.Query()
	serviceReq, err := ToServiceRequest(providerID, userID, query.Get("startDate"), query.Get("endDate"), query.Get("status"))
	if err != nil {
		h.logger.Warn(route+" - Invalid parameters: %v", err)
		handlers.RespondBadRequest(w, msgInvalidParams)
		return
	}

	// Сервис сам проверит, что запрашивает сам врач
	result, err := h.service.ListProviderAppointments(r.Context(), serviceReq)
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Appointments retrieved successfully: provider_id=%d, count=%d",
		providerID, len(result.Appointments))
	handlers.RespondJSON(w, http.StatusOK, result)
}
