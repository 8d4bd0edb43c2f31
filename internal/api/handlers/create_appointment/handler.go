package create_appointment

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

const (
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgMissingUserID       = "отсутствует ID пользователя"
	msgInvalidScheduledAt  = "некорректный формат времени приема, ожидается ISO 8601"
	msgInvalidSchedule     = "время приема должно быть в будущем"
	msgInvalidData         = "некорректные данные записи"
	msgProviderNotFound    = "врач не найден"
	msgPatientNotFound     = "пациент не найден"
	msgTypeNotFound        = "тип приема не найден"
	msgProviderUnavailable = "врач не принимает в выбранное время"
	msgSchedulingConflict  = "выбранное время пересекается с другим приемом"
)

const route = "POST /appointments"

var errorCases = []handlers.ErrorCase{
	{Err: createAppointment.ErrInvalidSchedule, Status: http.StatusBadRequest, Message: msgInvalidSchedule},
	{Err: domain.ErrValidation, Status: http.StatusBadRequest, Message: msgInvalidData},
	{Err: createAppointment.ErrProviderNotFound, Status: http.StatusNotFound, Message: msgProviderNotFound},
	{Err: createAppointment.ErrPatientNotFound, Status: http.StatusNotFound, Message: msgPatientNotFound},
	{Err: createAppointment.ErrAppointmentTypeNotFound, Status: http.StatusNotFound, Message: msgTypeNotFound},
	{Err: domain.ErrProviderUnavailable, Status: http.StatusUnprocessableEntity, Message: msgProviderUnavailable},
	{Err: domain.ErrSchedulingConflict, Status: http.StatusConflict, Message: msgSchedulingConflict},
}

type Handler struct {
	useCase CreateAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase CreateAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn(route + " - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn(route+" - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(userID)
	if err != nil {
		h.logger.Warn(route+" - Failed to parse scheduledAt: %v", err)
		handlers.RespondBadRequest(w, msgInvalidScheduledAt)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Appointment created successfully: appointment_id=%d, patient_id=%d, provider_id=%d",
		result.Appointment.ID, userID, req.ProviderID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
