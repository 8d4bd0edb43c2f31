package directory

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// ProviderRepository интерфейс репозитория врачей
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
	List(ctx context.Context, filter domain.ProviderFilter) ([]*domain.Provider, error)
}

// AppointmentTypeRepository интерфейс справочника типов приема
type AppointmentTypeRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.AppointmentType, error)
	List(ctx context.Context) ([]*domain.AppointmentType, error)
}

// TypesCache кэш справочника типов приема
type TypesCache interface {
	Get(key string) ([]*domain.AppointmentType, bool)
	Set(key string, value []*domain.AppointmentType)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
