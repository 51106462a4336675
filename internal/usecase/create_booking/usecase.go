package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	resourceRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/resource"
	pricingClient "github.com/m04kA/SMC-RentalService/internal/integrations/pricingservice"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifyservice"
)

// UseCase use case создания бронирования (действие "request")
// Запрос НЕ резервирует ёмкость: pending-бронирование ничего не удерживает,
// владелец может собрать несколько заявок и выбрать между ними.
// Ёмкость фиксируется только при approve.
type UseCase struct {
	bookingRepo   BookingRepository
	resourceRepo  ResourceRepository
	pricingClient PricingServiceClient
	notifier      Notifier
	txManager     TransactionManager
	timeProvider  TimeProvider
	logger        Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	resourceRepo ResourceRepository,
	pricingClient PricingServiceClient,
	notifier Notifier,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:   bookingRepo,
		resourceRepo:  resourceRepo,
		pricingClient: pricingClient,
		notifier:      notifier,
		txManager:     txManager,
		timeProvider:  &RealTimeProvider{},
		logger:        logger,
	}
}

// Execute выполняет use case создания бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: requester=%d, resource=%s/%d, seats=%d",
		req.RequesterID, req.ResourceType, req.ResourceID, req.Seats)

	now := uc.timeProvider.Now()

	// 1. Валидация входных данных
	if err := validateRequest(req, now); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Собираем заготовку бронирования по типу ресурса
	// Заодно проверяем доступность ёмкости на момент запроса (не резервируя её)
	booking, err := uc.buildBooking(ctx, req)
	if err != nil {
		return nil, err
	}

	// 3. Снапшот цены на момент запроса
	if err := uc.attachPriceSnapshot(ctx, req, booking); err != nil {
		return nil, err
	}

	// 4. Создаем pending-бронирование и первую запись истории атомарно
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		if _, err := uc.bookingRepo.Create(txCtx, booking); err != nil {
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		entry := &domain.StatusHistoryEntry{
			BookingID:  booking.ID,
			FromStatus: "",
			ToStatus:   domain.StatusPending,
			ActorID:    req.RequesterID,
			ActorRole:  domain.RoleRequester,
		}
		if err := uc.bookingRepo.AppendHistory(txCtx, entry); err != nil {
			uc.logger.Error("CreateBooking: failed to append history: %v", err)
			return fmt.Errorf("%w: failed to append history: %v", ErrInternal, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking id=%d", booking.ID)

	// 5. Эмитим событие создания; неудача не откатывает бронирование
	event := &notifyservice.TransitionEvent{
		EventID:    uuid.NewString(),
		BookingID:  booking.ID,
		FromStatus: "",
		ToStatus:   string(domain.StatusPending),
		ActorID:    req.RequesterID,
		ActorRole:  string(domain.RoleRequester),
		OccurredAt: now,
	}
	if err := uc.notifier.PublishTransition(ctx, event); err != nil {
		uc.logger.Error("CreateBooking: failed to publish event for booking id=%d: %v", booking.ID, err)
	}

	return &Response{
		ID:            booking.ID,
		ResourceType:  string(booking.ResourceType),
		ResourceID:    booking.ResourceID,
		RequesterID:   booking.RequesterID,
		OwnerID:       booking.OwnerID,
		Seats:         booking.Seats,
		StartDate:     booking.StartDate,
		EndDate:       booking.EndDate,
		PriceSnapshot: booking.PriceSnapshot,
		Currency:      booking.Currency,
		Status:        string(booking.Status),
		CreatedAt:     booking.CreatedAt,
		UpdatedAt:     booking.UpdatedAt,
	}, nil
}

// buildBooking загружает ресурс, проверяет доступность ёмкости
// на момент запроса и собирает pending-бронирование
func (uc *UseCase) buildBooking(ctx context.Context, req *Request) (*domain.Booking, error) {
	switch domain.ResourceType(req.ResourceType) {
	case domain.ResourceTrip:
		trip, err := uc.resourceRepo.GetTrip(ctx, req.ResourceID)
		if err != nil {
			if errors.Is(err, resourceRepo.ErrTripNotFound) {
				uc.logger.Warn("CreateBooking: trip id=%d not found", req.ResourceID)
				return nil, ErrResourceNotFound
			}
			uc.logger.Error("CreateBooking: failed to get trip id=%d: %v", req.ResourceID, err)
			return nil, fmt.Errorf("%w: failed to get trip: %v", ErrInternal, err)
		}

		if !trip.HasSeats(req.Seats) {
			uc.logger.Warn("CreateBooking: trip id=%d has %d seats remaining, requested %d",
				trip.ID, trip.SeatsRemaining, req.Seats)
			return nil, ErrCapacityExceeded
		}

		return &domain.Booking{
			ResourceType: domain.ResourceTrip,
			ResourceID:   trip.ID,
			RequesterID:  req.RequesterID,
			OwnerID:      trip.DriverID,
			Seats:        req.Seats,
			Status:       domain.StatusPending,
			Currency:     trip.Currency,
			// Базовая цена на случай degradation PricingService
			PriceSnapshot: trip.SeatPrice * float64(req.Seats),
		}, nil

	case domain.ResourceVehicle:
		vehicle, err := uc.resourceRepo.GetVehicle(ctx, req.ResourceID)
		if err != nil {
			if errors.Is(err, resourceRepo.ErrVehicleNotFound) {
				uc.logger.Warn("CreateBooking: vehicle id=%d not found", req.ResourceID)
				return nil, ErrResourceNotFound
			}
			uc.logger.Error("CreateBooking: failed to get vehicle id=%d: %v", req.ResourceID, err)
			return nil, fmt.Errorf("%w: failed to get vehicle: %v", ErrInternal, err)
		}

		rng := domain.DateRange{Start: *req.StartDate, End: *req.EndDate}

		booked, err := uc.resourceRepo.GetBookedRanges(ctx, vehicle.ID)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get booked ranges for vehicle id=%d: %v", vehicle.ID, err)
			return nil, fmt.Errorf("%w: failed to get booked ranges: %v", ErrInternal, err)
		}

		if hasRangeConflict(rng, booked) {
			uc.logger.Warn("CreateBooking: vehicle id=%d is booked within [%s, %s)",
				vehicle.ID, rng.Start.Format(domain.DateFormat), rng.End.Format(domain.DateFormat))
			return nil, ErrCapacityExceeded
		}

		return &domain.Booking{
			ResourceType: domain.ResourceVehicle,
			ResourceID:   vehicle.ID,
			RequesterID:  req.RequesterID,
			OwnerID:      vehicle.OwnerID,
			StartDate:    req.StartDate,
			EndDate:      req.EndDate,
			Status:       domain.StatusPending,
			Currency:     vehicle.Currency,
			// Базовая цена на случай degradation PricingService
			PriceSnapshot: vehicle.DailyPrice * float64(rng.Days()),
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown resource type %q", ErrInvalidInput, req.ResourceType)
	}
}

// attachPriceSnapshot запрашивает цену у PricingService
// При недоступности сервиса остаётся базовая цена из данных ресурса
func (uc *UseCase) attachPriceSnapshot(ctx context.Context, req *Request, booking *domain.Booking) error {
	quoteReq := &pricingClient.QuoteRequest{
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		RequesterID:  req.RequesterID,
		Seats:        req.Seats,
	}
	if req.StartDate != nil {
		quoteReq.StartDate = req.StartDate.Format(domain.DateFormat)
	}
	if req.EndDate != nil {
		quoteReq.EndDate = req.EndDate.Format(domain.DateFormat)
	}

	quote, err := uc.pricingClient.GetQuoteWithGracefulDegradation(ctx, quoteReq)
	if err != nil {
		if errors.Is(err, pricingClient.ErrServiceDegraded) {
			uc.logger.Warn("CreateBooking: pricing degraded, using base price %.2f %s",
				booking.PriceSnapshot, booking.Currency)
			return nil
		}
		uc.logger.Error("CreateBooking: failed to get quote: %v", err)
		return fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}

	booking.PriceSnapshot = quote.Amount
	booking.Currency = quote.Currency
	return nil
}
