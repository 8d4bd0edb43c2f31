package get_appointment_type

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/directory"
)

const (
	msgInvalidTypeID = "некорректный ID типа приема"
	msgNotFound      = "тип приема не найден"
)

const route = "GET /appointment-types/{id}"

var errorCases = []handlers.ErrorCase{
	{Err: directory.ErrAppointmentTypeNotFound, Status: http.StatusNotFound, Message: msgNotFound},
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

// Handle GET /api/v1/appointment-types/{typeId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	typeID, err := strconv.ParseInt(mux.Vars(r)["typeId"], 10, 64)
	if err != nil {
		h.logger.Warn(route+" - Invalid appointment type ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTypeID)
		return
	}

	appointmentType, err := h.service.GetAppointmentType(r.Context(), typeID)
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Appointment type retrieved: type_id=%d", typeID)
	handlers.RespondJSON(w, http.StatusOK, appointmentType)
}
