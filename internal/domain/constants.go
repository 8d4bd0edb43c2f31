package domain

import "time"

// Параметры движка по умолчанию
const (
	DefaultSlotDurationMinutes   = 30
	DefaultBookingBufferMinutes  = 15
	DefaultClaimWindow           = 15 * time.Minute
	DefaultCancellationNotice    = 24 * time.Hour
	DefaultForecastDays          = 30
	DefaultMaxRankedProviders    = 20
	DefaultRankLimit             = 10
	MaxRankLimit                 = 50
	DefaultMaxDistanceKm         = 25.0
	DefaultMinRating             = 3.0
	DefaultDateRangeDays         = 30
	DefaultAvailabilityCacheTTL  = 5 * time.Minute
	ConfirmationNumberLength     = 8
	ConfirmationNumberMaxRetries = 5
)

// Ограничения бизнес-валидации
const (
	MinAppointmentDurationMinutes = 15
	MaxAppointmentDurationMinutes = 480
	MaxReasonLength               = 1000
	MaxNotesLength                = 2000
)

// Названия типов приема, по которым определяется первичный или повторный визит
const (
	AppointmentTypeInitialConsultation = "Initial Consultation"
	AppointmentTypeFollowUp            = "Follow-up Visit"
)

// Форматы времени
const (
	TimeFormat     = "15:04"      // HH:MM
	DateFormat     = "2006-01-02" // YYYY-MM-DD
	DateTimeFormat = time.RFC3339
)
