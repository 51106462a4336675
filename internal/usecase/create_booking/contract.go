package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifyservice"
	"github.com/m04kA/SMC-RentalService/internal/integrations/pricingservice"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	AppendHistory(ctx context.Context, entry *domain.StatusHistoryEntry) error
}

// ResourceRepository интерфейс репозитория ресурсов
type ResourceRepository interface {
	GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error)
	GetTrip(ctx context.Context, id int64) (*domain.Trip, error)
	GetBookedRanges(ctx context.Context, vehicleID int64) ([]*domain.BookedRange, error)
}

// PricingServiceClient интерфейс клиента для PricingService
type PricingServiceClient interface {
	GetQuoteWithGracefulDegradation(ctx context.Context, req *pricingservice.QuoteRequest) (*pricingservice.Quote, error)
}

// Notifier интерфейс отправки событий переходов
type Notifier interface {
	PublishTransition(ctx context.Context, event *notifyservice.TransitionEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
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
