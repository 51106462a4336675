package sweeper

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/usecase/transition_booking"
)

// ExpiredHoldsLister интерфейс выборки просроченных платёжных окон
type ExpiredHoldsLister interface {
	ListExpiredHolds(ctx context.Context, now time.Time) ([]*domain.Booking, error)
}

// TransitionExecutor интерфейс применения перехода жизненного цикла
type TransitionExecutor interface {
	Execute(ctx context.Context, req *transition_booking.Request) (*transition_booking.Response, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Metrics интерфейс записи метрик прогонов свипера
type Metrics interface {
	ObserveSweep(expired int, err error)
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

// ObserveSweep no-op
func (NoopMetrics) ObserveSweep(expired int, err error) {}
