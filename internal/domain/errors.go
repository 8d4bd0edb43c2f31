package domain

import "errors"

// Таксономия ошибок движка записи
// Ошибки пакетов оборачивают эти значения, поэтому errors.Is работает на любом уровне
var (
	// ErrValidation некорректные входные данные
	ErrValidation = errors.New("validation error")

	// ErrSchedulingConflict пересечение с другим приемом или нарушение буфера
	ErrSchedulingConflict = errors.New("scheduling conflict")

	// ErrProviderUnavailable у врача нет доступного расписания на дату
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrPolicyViolation нарушено правило отмены
	ErrPolicyViolation = errors.New("policy violation")

	// ErrInvalidTransition недопустимый переход состояния
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrSlotUnavailable слот уже занят или окно подтверждения истекло
	ErrSlotUnavailable = errors.New("slot unavailable")

	// ErrNotFound сущность не найдена
	ErrNotFound = errors.New("not found")

	// ErrForbidden операция над чужой сущностью
	ErrForbidden = errors.New("forbidden")
)
