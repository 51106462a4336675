package sweeper

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/usecase/transition_booking"
)

// Service свипер просроченных платёжных окон
// Срок хранится в данных, а не в живом таймере: после рестарта очередной
// прогон находит все просроченные awaiting_payment-бронирования и
// применяет к ним expire от имени system. Параллельные свиперы безопасны:
// проигравший гонку получает no-op или отклонение по актуальному статусу.
type Service struct {
	bookings     ExpiredHoldsLister
	transitions  TransitionExecutor
	timeProvider TimeProvider
	metrics      Metrics
	logger       Logger
}

// NewService создает новый экземпляр свипера
func NewService(
	bookings ExpiredHoldsLister,
	transitions TransitionExecutor,
	metrics Metrics,
	logger Logger,
) *Service {
	return &Service{
		bookings:     bookings,
		transitions:  transitions,
		timeProvider: &RealTimeProvider{},
		metrics:      metrics,
		logger:       logger,
	}
}

// Run выполняет один прогон свипера и возвращает число истёкших бронирований
func (s *Service) Run(ctx context.Context) (int, error) {
	now := s.timeProvider.Now()

	expired, err := s.bookings.ListExpiredHolds(ctx, now)
	if err != nil {
		s.logger.Error("Sweeper: failed to list expired holds: %v", err)
		s.metrics.ObserveSweep(0, err)
		return 0, fmt.Errorf("%w: %v", ErrListExpired, err)
	}

	if len(expired) == 0 {
		s.metrics.ObserveSweep(0, nil)
		return 0, nil
	}

	s.logger.Info("Sweeper: found %d expired holds", len(expired))

	count := 0
	for _, b := range expired {
		if ctx.Err() != nil {
			s.metrics.ObserveSweep(count, ctx.Err())
			return count, ctx.Err()
		}

		req := &transition_booking.Request{
			BookingID: b.ID,
			Action:    string(domain.ActionExpire),
			ActorID:   0,
			ActorRole: string(domain.RoleSystem),
		}

		resp, err := s.transitions.Execute(ctx, req)
		if err != nil {
			// Конкурентная оплата или другой свипер успели первыми,
			// это не ошибка прогона
			if errors.Is(err, transition_booking.ErrInvalidTransition) ||
				errors.Is(err, transition_booking.ErrBookingNotFound) {
				s.logger.Warn("Sweeper: booking id=%d already moved on: %v", b.ID, err)
				continue
			}
			s.logger.Error("Sweeper: failed to expire booking id=%d: %v", b.ID, err)
			continue
		}

		if resp.Noop {
			continue
		}

		count++
		s.logger.Info("Sweeper: expired booking id=%d, hold released", b.ID)
	}

	s.metrics.ObserveSweep(count, nil)
	return count, nil
}
