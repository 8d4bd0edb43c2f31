package notification

import "errors"

var (
	// ErrQueueFull очередь уведомлений переполнена, уведомление отброшено
	ErrQueueFull = errors.New("notification: queue is full")
	// ErrDispatcherStopped диспетчер остановлен
	ErrDispatcherStopped = errors.New("notification: dispatcher stopped")
	// ErrSend ошибка доставки уведомления
	ErrSend = errors.New("notification: failed to send")
)
