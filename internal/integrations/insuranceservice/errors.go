package insuranceservice

import "errors"

var (
	// ErrMemberNotFound возвращается, когда страховая не знает полис
	ErrMemberNotFound = errors.New("insurance member not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("insuranceservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("insuranceservice client: invalid response")

	// ErrServiceDegraded возвращается при применении graceful degradation
	// Проверка полиса не блокирует запись: прием создается без результата проверки
	ErrServiceDegraded = errors.New("insuranceservice unavailable: graceful degradation applied")
)
