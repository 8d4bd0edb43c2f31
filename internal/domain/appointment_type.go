package domain

// AppointmentType тип приема
type AppointmentType struct {
	ID                   int64
	Name                 string
	DurationMinutes      int // 15 - 480
	TelemedicineEligible bool
}

// IsValidDuration проверяет допустимую длительность приема
func IsValidDuration(minutes int) bool {
	return minutes >= MinAppointmentDurationMinutes && minutes <= MaxAppointmentDurationMinutes
}

// InferAppointmentTypeName первичная консультация для новых пациентов, иначе повторный визит
func InferAppointmentTypeName(completedCount int) string {
	if completedCount == 0 {
		return AppointmentTypeInitialConsultation
	}
	return AppointmentTypeFollowUp
}
