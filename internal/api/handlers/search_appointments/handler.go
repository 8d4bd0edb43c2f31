package search_appointments

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidData        = "некорректные параметры подбора"
	msgNotFound           = "пациент или тип приема не найден"
)

const route = "POST /appointments/search"

var errorCases = []handlers.ErrorCase{
	{Err: domain.ErrValidation, Status: http.StatusBadRequest, Message: msgInvalidData},
	{Err: domain.ErrNotFound, Status: http.StatusNotFound, Message: msgNotFound},
}

type Handler struct {
	useCase RankOptionsUseCase
	logger  Logger
}

func NewHandler(useCase RankOptionsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments/search
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn(route + " - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req SearchRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn(route+" - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.useCase.Execute(r.Context(), req.ToUseCaseRequest(userID))
	if err != nil {
		handlers.RespondServiceError(w, h.logger, route, err, errorCases...)
		return
	}

	h.logger.Info(route+" - Options ranked successfully: patient_id=%d, count=%d",
		userID, len(result.Options))
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
