package domain

// Default engine configuration values
const (
	DefaultPaymentHoldMinutes = 15
)

// Business validation constants
const (
	MinSeatsPerBooking          = 1
	MaxSeatsPerBooking          = 8
	MaxRentalDays               = 90
	MaxCancellationReasonLength = 500
)

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// TerminalStatuses список терминальных статусов
// Бронирования в этих статусах никогда не удерживают ёмкость
var TerminalStatuses = []BookingStatus{
	StatusCompleted,
	StatusCancelled,
	StatusRejected,
	StatusExpired,
}

// CapacityHoldingStatuses список статусов, в которых количество бронирования
// учтено в леджере ресурса. Используется при пересчёте леджера из истории.
var CapacityHoldingStatuses = []BookingStatus{
	StatusAwaitingPayment,
	StatusConfirmed,
	StatusOngoing,
}
