package create_booking

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	createBooking "github.com/m04kA/SMC-RentalService/internal/usecase/create_booking"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ResourceType string  `json:"resourceType"`        // "vehicle" | "trip"
	ResourceID   int64   `json:"resourceId"`
	Seats        int     `json:"seats,omitempty"`     // только для trip
	StartDate    *string `json:"startDate,omitempty"` // "2026-09-15", только для vehicle
	EndDate      *string `json:"endDate,omitempty"`   // "2026-09-18", только для vehicle
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID            int64   `json:"id"`
	ResourceType  string  `json:"resourceType"`
	ResourceID    int64   `json:"resourceId"`
	RequesterID   int64   `json:"requesterId"`
	OwnerID       int64   `json:"ownerId"`
	Seats         int     `json:"seats,omitempty"`
	StartDate     *string `json:"startDate,omitempty"`
	EndDate       *string `json:"endDate,omitempty"`
	PriceSnapshot float64 `json:"priceSnapshot"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"createdAt"`
	UpdatedAt     string  `json:"updatedAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(requesterID int64) (*createBooking.Request, error) {
	req := &createBooking.Request{
		ResourceType: r.ResourceType,
		ResourceID:   r.ResourceID,
		RequesterID:  requesterID,
		Seats:        r.Seats,
	}

	if r.StartDate != nil {
		start, err := time.Parse(domain.DateFormat, *r.StartDate)
		if err != nil {
			return nil, err
		}
		req.StartDate = &start
	}
	if r.EndDate != nil {
		end, err := time.Parse(domain.DateFormat, *r.EndDate)
		if err != nil {
			return nil, err
		}
		req.EndDate = &end
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	out := &BookingResponse{
		ID:            resp.ID,
		ResourceType:  resp.ResourceType,
		ResourceID:    resp.ResourceID,
		RequesterID:   resp.RequesterID,
		OwnerID:       resp.OwnerID,
		Seats:         resp.Seats,
		PriceSnapshot: resp.PriceSnapshot,
		Currency:      resp.Currency,
		Status:        resp.Status,
		CreatedAt:     resp.CreatedAt.Format(time.RFC3339),
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

	return out
}
