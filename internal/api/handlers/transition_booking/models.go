package transition_booking

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	transitionBooking "github.com/m04kA/SMC-RentalService/internal/usecase/transition_booking"
)

// TransitionRequest HTTP request model
type TransitionRequest struct {
	Action string  `json:"action"`           // approve | reject | pay | confirm_pickup | complete | cancel
	Role   string  `json:"role"`             // requester | owner
	Reason *string `json:"reason,omitempty"` // причина отмены (только для cancel)
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *TransitionRequest) ToUseCaseRequest(bookingID, actorID int64) *transitionBooking.Request {
	return &transitionBooking.Request{
		BookingID: bookingID,
		Action:    r.Action,
		ActorID:   actorID,
		ActorRole: r.Role,
		Reason:    r.Reason,
	}
}

// TransitionResponse HTTP response model
type TransitionResponse struct {
	ID              int64   `json:"id"`
	ResourceType    string  `json:"resourceType"`
	ResourceID      int64   `json:"resourceId"`
	RequesterID     int64   `json:"requesterId"`
	OwnerID         int64   `json:"ownerId"`
	Seats           int     `json:"seats,omitempty"`
	StartDate       *string `json:"startDate,omitempty"`
	EndDate         *string `json:"endDate,omitempty"`
	PriceSnapshot   float64 `json:"priceSnapshot"`
	Currency        string  `json:"currency"`
	FromStatus      string  `json:"fromStatus"`
	Status          string  `json:"status"`
	Noop            bool    `json:"noop,omitempty"`
	PaymentDeadline *string `json:"paymentDeadline,omitempty"` // ISO 8601
	UpdatedAt       string  `json:"updatedAt"`
}

// ErrorWithStatusResponse ошибка отклонённого перехода вместе
// с актуальным статусом бронирования
type ErrorWithStatusResponse struct {
	Error         string `json:"error"`
	CurrentStatus string `json:"currentStatus,omitempty"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *transitionBooking.Response) *TransitionResponse {
	out := &TransitionResponse{
		ID:            resp.ID,
		ResourceType:  resp.ResourceType,
		ResourceID:    resp.ResourceID,
		RequesterID:   resp.RequesterID,
		OwnerID:       resp.OwnerID,
		Seats:         resp.Seats,
		PriceSnapshot: resp.PriceSnapshot,
		Currency:      resp.Currency,
		FromStatus:    resp.FromStatus,
		Status:        resp.Status,
		Noop:          resp.Noop,
		UpdatedAt:     resp.UpdatedAt.Format(time.RFC3339),
	}

	if resp.StartDate != nil {
		s := resp.StartDate.Format(domain.DateFormat)
		out.StartDate = &s
	}
	if resp.EndDate != nil {
		s := resp.EndDate.Format(domain.DateFormat)
		out.EndDate = &s
	}
	if resp.PaymentDeadline != nil {
		s := resp.PaymentDeadline.Format(time.RFC3339)
		out.PaymentDeadline = &s
	}

	return out
}
