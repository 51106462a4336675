package pricingservice

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// QuoteRequest запрос цены для бронирования
type QuoteRequest struct {
	ResourceType string `json:"resourceType"` // "vehicle" | "trip"
	ResourceID   int64  `json:"resourceId"`
	RequesterID  int64  `json:"requesterId"`
	Seats        int    `json:"seats,omitempty"`
	StartDate    string `json:"startDate,omitempty"` // YYYY-MM-DD
	EndDate      string `json:"endDate,omitempty"`   // YYYY-MM-DD
}

// Quote снапшот цены от PricingService
// Движок хранит его как непрозрачное значение
type Quote struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// ErrorResponse модель ошибки от PricingService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
