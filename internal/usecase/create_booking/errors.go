package create_booking

import "errors"

var (
	// ErrResourceNotFound возвращается, когда ресурс не найден
	ErrResourceNotFound = errors.New("create_booking: resource not found")

	// ErrCapacityExceeded возвращается, когда у ресурса нет ёмкости
	// под запрошенное количество на момент запроса
	ErrCapacityExceeded = errors.New("create_booking: capacity exceeded")

	// ErrInvalidDateRange возвращается при некорректном диапазоне дат аренды
	ErrInvalidDateRange = errors.New("create_booking: invalid date range")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrPriceUnavailable возвращается, когда цену получить не удалось
	// даже с graceful degradation
	ErrPriceUnavailable = errors.New("create_booking: price unavailable")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
