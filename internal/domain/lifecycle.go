package domain

import (
	"errors"
	"time"
)

// Action is a lifecycle action driven against a booking.
// The "request" action is not listed here: it creates the booking
// and never mutates an existing one.
type Action string

const (
	ActionApprove       Action = "approve"
	ActionReject        Action = "reject"
	ActionPay           Action = "pay"
	ActionExpire        Action = "expire"
	ActionConfirmPickup Action = "confirm_pickup"
	ActionComplete      Action = "complete"
	ActionCancel        Action = "cancel"
)

var (
	// ErrInvalidTransition действие не допустимо из текущего статуса
	ErrInvalidTransition = errors.New("domain: invalid transition")

	// ErrUnauthorizedActor роль участника не соответствует действию
	ErrUnauthorizedActor = errors.New("domain: actor role not allowed for action")

	// ErrUnknownAction неизвестное действие
	ErrUnknownAction = errors.New("domain: unknown action")

	// ErrUnknownStatus неизвестный статус
	ErrUnknownStatus = errors.New("domain: unknown booking status")
)

// LedgerEffect is the resource ledger mutation required by a transition
type LedgerEffect int

const (
	LedgerNone LedgerEffect = iota
	// LedgerCommit commits the booking's quantity to the resource
	// (seats decremented / date range blocked)
	LedgerCommit
	// LedgerRelease reverses a previous commit exactly once
	LedgerRelease
)

// Transition is the planned outcome of applying an action to a booking.
// Planning is pure: applying the effect atomically is the caller's job.
type Transition struct {
	From   BookingStatus
	To     BookingStatus
	Ledger LedgerEffect
	// SetDeadline: payment deadline must be set to now + hold window
	SetDeadline bool
	// ClearDeadline: payment deadline must be cleared
	ClearDeadline bool
	// Noop: action is an idempotent repeat, nothing to apply
	Noop bool
}

// PlanTransition maps (current status, action, actor role, now) to the next
// status and the required ledger effect. Every legality and role check of the
// lifecycle lives here; callers must not compare statuses themselves.
func PlanTransition(b *Booking, action Action, role ActorRole, now time.Time) (Transition, error) {
	switch action {
	case ActionApprove:
		if role != RoleOwner {
			return Transition{}, ErrUnauthorizedActor
		}
		if b.Status != StatusPending {
			return Transition{}, ErrInvalidTransition
		}
		// Ёмкость резервируется только при подтверждении, не при запросе
		return Transition{
			From:        StatusPending,
			To:          StatusAwaitingPayment,
			Ledger:      LedgerCommit,
			SetDeadline: true,
		}, nil

	case ActionReject:
		if role != RoleOwner {
			return Transition{}, ErrUnauthorizedActor
		}
		if b.Status != StatusPending {
			return Transition{}, ErrInvalidTransition
		}
		return Transition{From: StatusPending, To: StatusRejected}, nil

	case ActionPay:
		if role != RoleRequester {
			return Transition{}, ErrUnauthorizedActor
		}
		if b.Status != StatusAwaitingPayment {
			return Transition{}, ErrInvalidTransition
		}
		if b.PaymentDeadline == nil || !now.Before(*b.PaymentDeadline) {
			// Дедлайн прошёл - оплата не принимается, слот освободит Sweeper
			return Transition{}, ErrInvalidTransition
		}
		return Transition{
			From:          StatusAwaitingPayment,
			To:            StatusConfirmed,
			ClearDeadline: true,
		}, nil

	case ActionExpire:
		if role != RoleSystem {
			return Transition{}, ErrUnauthorizedActor
		}
		if b.IsTerminal() {
			// Повторный expire - идемпотентный no-op
			return Transition{From: b.Status, To: b.Status, Noop: true}, nil
		}
		if b.Status != StatusAwaitingPayment {
			return Transition{}, ErrInvalidTransition
		}
		if b.PaymentDeadline != nil && now.Before(*b.PaymentDeadline) {
			return Transition{}, ErrInvalidTransition
		}
		return Transition{
			From:          StatusAwaitingPayment,
			To:            StatusExpired,
			Ledger:        LedgerRelease,
			ClearDeadline: true,
		}, nil

	case ActionConfirmPickup:
		if role != RoleRequester {
			return Transition{}, ErrUnauthorizedActor
		}
		if b.Status != StatusConfirmed {
			return Transition{}, ErrInvalidTransition
		}
		return Transition{From: StatusConfirmed, To: StatusOngoing}, nil

	case ActionComplete:
		if role != RoleOwner && role != RoleSystem {
			return Transition{}, ErrUnauthorizedActor
		}
		if b.Status != StatusConfirmed && b.Status != StatusOngoing {
			return Transition{}, ErrInvalidTransition
		}
		return Transition{From: b.Status, To: StatusCompleted}, nil

	case ActionCancel:
		if role != RoleRequester && role != RoleOwner {
			return Transition{}, ErrUnauthorizedActor
		}
		if b.Status == StatusCancelled {
			// Повторная отмена - идемпотентный no-op, не ошибка
			return Transition{From: b.Status, To: b.Status, Noop: true}, nil
		}
		if b.IsTerminal() {
			return Transition{}, ErrInvalidTransition
		}
		tr := Transition{From: b.Status, To: StatusCancelled}
		if b.HoldsCapacity() {
			tr.Ledger = LedgerRelease
			tr.ClearDeadline = true
		}
		return tr, nil

	default:
		return Transition{}, ErrUnknownAction
	}
}

// ParseAction validates a raw action string
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionReject, ActionPay, ActionExpire,
		ActionConfirmPickup, ActionComplete, ActionCancel:
		return Action(s), nil
	}
	return "", ErrUnknownAction
}

// ParseStatus validates a raw status string
func ParseStatus(s string) (BookingStatus, error) {
	switch BookingStatus(s) {
	case StatusPending, StatusAwaitingPayment, StatusConfirmed, StatusOngoing,
		StatusCompleted, StatusCancelled, StatusRejected, StatusExpired:
		return BookingStatus(s), nil
	}
	return "", ErrUnknownStatus
}

// ParseActorRole validates a raw role string
func ParseActorRole(s string) (ActorRole, error) {
	switch ActorRole(s) {
	case RoleRequester, RoleOwner, RoleSystem:
		return ActorRole(s), nil
	}
	return "", ErrUnauthorizedActor
}
