package transition_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	resourceRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifyservice"
)

const (
	resultOK       = "ok"
	resultNoop     = "noop"
	resultRejected = "rejected"
	resultError    = "error"
)

// UseCase use case перехода жизненного цикла бронирования
// Единая точка входа для всех действий: approve, reject, pay, expire,
// confirm_pickup, complete, cancel. Эффект леджера и условное обновление
// статуса выполняются в одной serializable-транзакции; проигрыш гонки
// условного обновления прозрачно повторяется один раз.
type UseCase struct {
	bookingRepo  BookingRepository
	ledger       ResourceLedger
	notifier     Notifier
	txManager    TransactionManager
	timeProvider TimeProvider
	holdWindow   time.Duration
	metrics      Metrics
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	ledger ResourceLedger,
	notifier Notifier,
	txManager TransactionManager,
	holdWindow time.Duration,
	metrics Metrics,
	logger Logger,
) *UseCase {
	if holdWindow <= 0 {
		holdWindow = time.Duration(domain.DefaultPaymentHoldMinutes) * time.Minute
	}
	return &UseCase{
		bookingRepo:  bookingRepo,
		ledger:       ledger,
		notifier:     notifier,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		holdWindow:   holdWindow,
		metrics:      metrics,
		logger:       logger,
	}
}

// outcome результат одной попытки применения перехода
type outcome struct {
	booking  *domain.Booking
	from     domain.BookingStatus
	to       domain.BookingStatus
	noop     bool
	deadline *time.Time
}

// Execute выполняет use case перехода жизненного цикла
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	action, role, err := uc.parseRequest(req)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("TransitionBooking: booking=%d, action=%s, actor=%d (%s)",
		req.BookingID, action, req.ActorID, role)

	out, err := uc.apply(ctx, req, action, role)
	if errors.Is(err, bookingRepo.ErrStaleWrite) {
		// Конкурентный переход успел первым. Перечитываем и повторяем
		// ровно один раз: повторная попытка либо станет no-op, либо
		// отклонится по актуальному статусу.
		uc.logger.Warn("TransitionBooking: stale write on booking=%d action=%s, retrying once",
			req.BookingID, action)
		out, err = uc.apply(ctx, req, action, role)
		if errors.Is(err, bookingRepo.ErrStaleWrite) {
			uc.metrics.IncTransition(string(action), resultError)
			return nil, fmt.Errorf("%w: booking %d lost the race twice on %s", ErrStaleWrite, req.BookingID, action)
		}
	}
	if err != nil {
		uc.metrics.IncTransition(string(action), uc.resultOf(err))
		return nil, err
	}

	if out.noop {
		uc.logger.Info("TransitionBooking: booking=%d action=%s is a no-op in status=%s",
			req.BookingID, action, out.booking.Status)
		uc.metrics.IncTransition(string(action), resultNoop)
		return buildResponse(out), nil
	}

	uc.logger.Info("TransitionBooking: booking=%d moved %s -> %s by actor=%d (%s)",
		req.BookingID, out.from, out.to, req.ActorID, role)
	uc.metrics.IncTransition(string(action), resultOK)

	// Эмитим событие перехода; неудача не откатывает переход
	event := &notifyservice.TransitionEvent{
		EventID:    uuid.NewString(),
		BookingID:  out.booking.ID,
		FromStatus: string(out.from),
		ToStatus:   string(out.to),
		ActorID:    req.ActorID,
		ActorRole:  string(role),
		OccurredAt: uc.timeProvider.Now(),
	}
	if err := uc.notifier.PublishTransition(ctx, event); err != nil {
		uc.logger.Error("TransitionBooking: failed to publish event for booking id=%d: %v", out.booking.ID, err)
		uc.metrics.IncNotifyEmitFailure()
	}

	return buildResponse(out), nil
}

// apply выполняет одну попытку перехода в serializable-транзакции
func (uc *UseCase) apply(ctx context.Context, req *Request, action domain.Action, role domain.ActorRole) (*outcome, error) {
	out := &outcome{}

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		booking, err := uc.bookingRepo.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			uc.logger.Error("TransitionBooking: failed to get booking id=%d: %v", req.BookingID, err)
			return fmt.Errorf("%w: failed to get booking: %v", ErrInternal, err)
		}
		out.booking = booking
		out.from = booking.Status

		if err := authorizeActor(booking, role, req.ActorID); err != nil {
			return err
		}

		now := uc.timeProvider.Now()
		tr, err := domain.PlanTransition(booking, action, role, now)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorizedActor) {
				return reject(ErrAccessDenied, booking.Status)
			}
			return reject(ErrInvalidTransition, booking.Status)
		}

		if tr.Noop {
			out.noop = true
			out.to = booking.Status
			return nil
		}
		out.to = tr.To

		// Эффект леджера до записи статуса: откат транзакции отменяет оба
		switch tr.Ledger {
		case domain.LedgerCommit:
			if err := uc.ledger.TryCommit(txCtx, booking); err != nil {
				if errors.Is(err, resourceRepo.ErrCapacityExceeded) {
					return reject(ErrCapacityExceeded, booking.Status)
				}
				uc.logger.Error("TransitionBooking: ledger commit failed for booking id=%d: %v", booking.ID, err)
				return fmt.Errorf("%w: ledger commit failed: %v", ErrInternal, err)
			}
		case domain.LedgerRelease:
			if err := uc.ledger.Release(txCtx, booking); err != nil {
				uc.logger.Error("TransitionBooking: ledger release failed for booking id=%d: %v", booking.ID, err)
				return fmt.Errorf("%w: ledger release failed: %v", ErrInternal, err)
			}
		}

		if tr.SetDeadline {
			deadline := now.Add(uc.holdWindow)
			out.deadline = &deadline
		}

		if action == domain.ActionCancel {
			err = uc.bookingRepo.CancelCAS(txCtx, booking.ID, tr.From, req.Reason)
		} else {
			err = uc.bookingRepo.UpdateStatusCAS(txCtx, booking.ID, tr.From, tr.To, out.deadline, tr.ClearDeadline)
		}
		if err != nil {
			if errors.Is(err, bookingRepo.ErrStaleWrite) || errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return err
			}
			uc.logger.Error("TransitionBooking: failed to update status for booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: failed to update status: %v", ErrInternal, err)
		}

		entry := &domain.StatusHistoryEntry{
			BookingID:  booking.ID,
			FromStatus: tr.From,
			ToStatus:   tr.To,
			ActorID:    req.ActorID,
			ActorRole:  role,
		}
		if err := uc.bookingRepo.AppendHistory(txCtx, entry); err != nil {
			uc.logger.Error("TransitionBooking: failed to append history for booking id=%d: %v", booking.ID, err)
			return fmt.Errorf("%w: failed to append history: %v", ErrInternal, err)
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	return out, nil
}

// parseRequest разбирает и валидирует действие и роль
func (uc *UseCase) parseRequest(req *Request) (domain.Action, domain.ActorRole, error) {
	action, err := domain.ParseAction(req.Action)
	if err != nil {
		return "", "", fmt.Errorf("%w: unknown action %q", ErrInvalidInput, req.Action)
	}

	role, err := domain.ParseActorRole(req.ActorRole)
	if err != nil {
		return "", "", fmt.Errorf("%w: unknown actor role %q", ErrInvalidInput, req.ActorRole)
	}

	if role != domain.RoleSystem && req.ActorID <= 0 {
		return "", "", fmt.Errorf("%w: actorID must be positive", ErrInvalidInput)
	}

	if req.Reason != nil && len(*req.Reason) > domain.MaxCancellationReasonLength {
		return "", "", fmt.Errorf("%w: cancellation reason exceeds %d characters",
			ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	return action, role, nil
}

// resultOf классифицирует ошибку для метрики переходов
func (uc *UseCase) resultOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrBookingNotFound),
		errors.Is(err, ErrInvalidInput):
		return resultRejected
	default:
		return resultError
	}
}

// authorizeActor проверяет, что участник является стороной бронирования,
// соответствующей заявленной роли. System действует от имени процесса.
func authorizeActor(b *domain.Booking, role domain.ActorRole, actorID int64) error {
	switch role {
	case domain.RoleSystem:
		return nil
	case domain.RoleRequester:
		if actorID != b.RequesterID {
			return reject(ErrAccessDenied, b.Status)
		}
	case domain.RoleOwner:
		if actorID != b.OwnerID {
			return reject(ErrAccessDenied, b.Status)
		}
	}
	return nil
}

// buildResponse собирает ответ из результата применения перехода
func buildResponse(out *outcome) *Response {
	b := out.booking

	resp := &Response{
		ID:            b.ID,
		ResourceType:  string(b.ResourceType),
		ResourceID:    b.ResourceID,
		RequesterID:   b.RequesterID,
		OwnerID:       b.OwnerID,
		Seats:         b.Seats,
		StartDate:     b.StartDate,
		EndDate:       b.EndDate,
		PriceSnapshot: b.PriceSnapshot,
		Currency:      b.Currency,
		FromStatus:    string(out.from),
		Status:        string(out.to),
		Noop:          out.noop,
		UpdatedAt:     b.UpdatedAt,
	}

	// Дедлайн показываем только пока бронирование ждёт оплаты
	if out.to == domain.StatusAwaitingPayment {
		if out.deadline != nil {
			resp.PaymentDeadline = out.deadline
		} else {
			resp.PaymentDeadline = b.PaymentDeadline
		}
	}

	return resp
}
