package pricingservice

import "errors"

var (
	// ErrQuoteNotFound возвращается, когда PricingService не может дать цену
	// для запрошенного ресурса
	ErrQuoteNotFound = errors.New("pricingservice client: quote not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("pricingservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("pricingservice client: invalid response")

	// ErrServiceDegraded возвращается при применении graceful degradation
	// Указывает, что PricingService недоступен и следует использовать
	// базовую цену из данных ресурса
	ErrServiceDegraded = errors.New("pricingservice unavailable: graceful degradation applied")
)
