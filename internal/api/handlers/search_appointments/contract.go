package search_appointments

import (
	"context"

	rankOptions "github.com/m04kA/SMC-AppointmentService/internal/usecase/rank_options"
)

type RankOptionsUseCase interface {
	Execute(ctx context.Context, req *rankOptions.Request) (*rankOptions.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
