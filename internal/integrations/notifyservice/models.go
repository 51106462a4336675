package notifyservice

import "time"

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// TransitionEvent событие совершённого перехода жизненного цикла
// Отправляется в NotificationService после каждого зафиксированного перехода
type TransitionEvent struct {
	EventID    string    `json:"eventId"`
	BookingID  int64     `json:"bookingId"`
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorID    int64     `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	OccurredAt time.Time `json:"occurredAt"`
}
