package transition_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifyservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	UpdateStatusCAS(ctx context.Context, id int64, from, to domain.BookingStatus, deadline *time.Time, clearDeadline bool) error
	CancelCAS(ctx context.Context, id int64, from domain.BookingStatus, reason *string) error
	AppendHistory(ctx context.Context, entry *domain.StatusHistoryEntry) error
}

// ResourceLedger интерфейс леджера ресурсов
// Единственная точка мутации занятой ёмкости
type ResourceLedger interface {
	TryCommit(ctx context.Context, b *domain.Booking) error
	Release(ctx context.Context, b *domain.Booking) error
}

// Notifier интерфейс отправки событий переходов
type Notifier interface {
	PublishTransition(ctx context.Context, event *notifyservice.TransitionEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Metrics интерфейс записи метрик переходов
type Metrics interface {
	IncTransition(action string, result string)
	IncNotifyEmitFailure()
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// NoopMetrics заглушка метрик, когда метрики отключены
type NoopMetrics struct{}

// IncTransition no-op
func (NoopMetrics) IncTransition(action string, result string) {}

// IncNotifyEmitFailure no-op
func (NoopMetrics) IncNotifyEmitFailure() {}
