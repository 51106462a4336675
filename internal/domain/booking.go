package domain

import "time"

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending         BookingStatus = "pending"
	StatusAwaitingPayment BookingStatus = "awaiting_payment"
	StatusConfirmed       BookingStatus = "confirmed"
	StatusOngoing         BookingStatus = "ongoing"
	StatusCompleted       BookingStatus = "completed"
	StatusCancelled       BookingStatus = "cancelled"
	StatusRejected        BookingStatus = "rejected"
	StatusExpired         BookingStatus = "expired"
)

// ResourceType discriminates the two reservable resource kinds
type ResourceType string

const (
	ResourceVehicle ResourceType = "vehicle"
	ResourceTrip    ResourceType = "trip"
)

// ActorRole is the role an actor acts under when driving a transition
type ActorRole string

const (
	RoleRequester ActorRole = "requester"
	RoleOwner     ActorRole = "owner"
	RoleSystem    ActorRole = "system"
)

// Booking represents one requester's claim against a resource,
// tracked through the reservation lifecycle
type Booking struct {
	ID           int64
	ResourceType ResourceType
	ResourceID   int64
	RequesterID  int64
	// Владелец ресурса: owner автомобиля или водитель поездки
	OwnerID int64

	// Requested quantity: seats for a trip, [StartDate, EndDate) for a vehicle
	Seats     int
	StartDate *time.Time
	EndDate   *time.Time

	// Price snapshot taken at request time, opaque to the engine
	PriceSnapshot float64
	Currency      string

	Status BookingStatus
	// Set only while Status == awaiting_payment
	PaymentDeadline *time.Time

	CancellationReason *string
	CancelledAt        *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal returns true if the booking is in a terminal state
func (b *Booking) IsTerminal() bool {
	switch b.Status {
	case StatusCompleted, StatusCancelled, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// HoldsCapacity returns true if the booking's quantity is currently
// committed to the resource ledger
func (b *Booking) HoldsCapacity() bool {
	switch b.Status {
	case StatusAwaitingPayment, StatusConfirmed, StatusOngoing:
		return true
	}
	return false
}

// CanBeCancelled returns true if the booking can still be cancelled
func (b *Booking) CanBeCancelled() bool {
	return !b.IsTerminal()
}

// DateRange returns the requested date range of a vehicle booking
func (b *Booking) DateRange() (DateRange, bool) {
	if b.ResourceType != ResourceVehicle || b.StartDate == nil || b.EndDate == nil {
		return DateRange{}, false
	}
	return DateRange{Start: *b.StartDate, End: *b.EndDate}, true
}

// StatusHistoryEntry one committed transition, retained for audit
type StatusHistoryEntry struct {
	ID         int64
	BookingID  int64
	FromStatus BookingStatus
	ToStatus   BookingStatus
	ActorID    int64
	ActorRole  ActorRole
	CreatedAt  time.Time
}

// BookingsFilter фильтр для выборки бронирований
type BookingsFilter struct {
	ResourceType *ResourceType  // Фильтр по типу ресурса (опционально)
	ResourceID   *int64         // Фильтр по ресурсу (опционально)
	ActorID      *int64         // Фильтр по участнику (опционально)
	ActorRole    *ActorRole     // Чья сторона: requester или owner (вместе с ActorID)
	Status       *BookingStatus // Фильтр по статусу (опционально)
}
