package events

import "errors"

var (
	// ErrMarshalEvent ошибка сериализации события
	ErrMarshalEvent = errors.New("events: failed to marshal event")
	// ErrPublish ошибка отправки события в шину
	ErrPublish = errors.New("events: failed to publish event")
)
