package rank_options

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/geo"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Request модель запроса на подбор вариантов записи
type Request struct {
	PatientID   int64       // ID пациента
	Filters     Filters     // Отбор врачей и окна дат
	Preferences Preferences // Пожелания, влияют только на оценку
	Limit       int         // Сколько вариантов вернуть (по умолчанию 10, максимум 50)
}

// Filters фильтры подбора
type Filters struct {
	Specialty     *string    // Специализация врача (опционально)
	Location      *geo.Point // Точка поиска (опционально)
	MaxDistanceKm *float64   // Радиус поиска, по умолчанию 25 км
	MinRating     *float64   // Минимальный рейтинг, по умолчанию 3.0
	DateRangeDays int        // Окно дат, по умолчанию 30 дней
}

// Preferences пожелания пациента
type Preferences struct {
	PreferredTimes []domain.TimeOfDay // Предпочтительные части дня
	ProviderGender *string            // Пол врача
	Language       *string            // Язык врача
}

// Response модель ответа с вариантами записи
type Response struct {
	Options []Option
}

// Option вариант записи с оценкой
type Option struct {
	ProviderID           int64
	ProviderName         string
	ScheduledAt          time.Time
	Date                 time.Time
	Time                 types.TimeString
	SlotType             domain.TimeOfDay
	AppointmentTypeID    int64
	AppointmentTypeName  string
	DurationMinutes      int
	EstimatedWaitMinutes int
	DistanceKm           *float64 // nil, если нет геоданных
	Score                float64
	Breakdown            ScoreBreakdown
}
