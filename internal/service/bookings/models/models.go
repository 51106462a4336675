package models

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Request модели

// ListBookingsRequest запрос на получение бронирований с фильтрацией
type ListBookingsRequest struct {
	ResourceType *string `json:"resourceType,omitempty"` // Фильтр по типу ресурса (опционально)
	ResourceID   *int64  `json:"resourceId,omitempty"`   // Фильтр по ресурсу (опционально)
	ActorID      *int64  `json:"actorId,omitempty"`      // Фильтр по участнику (опционально)
	ActorRole    *string `json:"role,omitempty"`         // Сторона участника (опционально)
	Status       *string `json:"status,omitempty"`       // Фильтр по статусу (опционально)
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListBookingsRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{
		ResourceID: r.ResourceID,
		ActorID:    r.ActorID,
	}

	if r.ResourceType != nil {
		switch domain.ResourceType(*r.ResourceType) {
		case domain.ResourceVehicle, domain.ResourceTrip:
			rt := domain.ResourceType(*r.ResourceType)
			filter.ResourceType = &rt
		default:
			return filter, domain.ErrUnknownStatus
		}
	}

	if r.ActorRole != nil {
		role, err := domain.ParseActorRole(*r.ActorRole)
		if err != nil {
			return filter, err
		}
		filter.ActorRole = &role
	}

	if r.Status != nil {
		status, err := domain.ParseStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	ID           int64  `json:"id"`
	ResourceType string `json:"resourceType"`
	ResourceID   int64  `json:"resourceId"`
	RequesterID  int64  `json:"requesterId"`
	OwnerID      int64  `json:"ownerId"`

	Seats     int     `json:"seats,omitempty"`
	StartDate *string `json:"startDate,omitempty"` // "2025-10-15"
	EndDate   *string `json:"endDate,omitempty"`   // "2025-10-18"

	PriceSnapshot float64 `json:"priceSnapshot"`
	Currency      string  `json:"currency"`

	Status          string  `json:"status"`
	PaymentDeadline *string `json:"paymentDeadline,omitempty"` // ISO 8601

	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// HistoryEntryResponse одна запись аудит-истории переходов
type HistoryEntryResponse struct {
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorID    int64     `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	CreatedAt  time.Time `json:"createdAt"`
}

// BookingHistoryResponse история статусов бронирования
type BookingHistoryResponse struct {
	BookingID int64                  `json:"bookingId"`
	History   []HistoryEntryResponse `json:"history"`
}

// Методы конвертации

// FromDomainBooking конвертирует domain модель в DTO
func FromDomainBooking(b *domain.Booking) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		ID:                 b.ID,
		ResourceType:       string(b.ResourceType),
		ResourceID:         b.ResourceID,
		RequesterID:        b.RequesterID,
		OwnerID:            b.OwnerID,
		Seats:              b.Seats,
		PriceSnapshot:      b.PriceSnapshot,
		Currency:           b.Currency,
		Status:             string(b.Status),
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}

	if b.StartDate != nil {
		s := b.StartDate.Format(domain.DateFormat)
		resp.StartDate = &s
	}
	if b.EndDate != nil {
		s := b.EndDate.Format(domain.DateFormat)
		resp.EndDate = &s
	}
	if b.PaymentDeadline != nil {
		s := b.PaymentDeadline.Format(time.RFC3339)
		resp.PaymentDeadline = &s
	}
	if b.CancelledAt != nil {
		s := b.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &s
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	if bookings == nil {
		return &BookingListResponse{
			Bookings: []BookingResponse{},
		}
	}

	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, len(bookings)),
	}

	for i, booking := range bookings {
		if bookingResp := FromDomainBooking(booking); bookingResp != nil {
			resp.Bookings[i] = *bookingResp
		}
	}

	return resp
}

// FromDomainHistory конвертирует историю статусов в DTO
func FromDomainHistory(bookingID int64, entries []*domain.StatusHistoryEntry) *BookingHistoryResponse {
	resp := &BookingHistoryResponse{
		BookingID: bookingID,
		History:   make([]HistoryEntryResponse, 0, len(entries)),
	}

	for _, e := range entries {
		resp.History = append(resp.History, HistoryEntryResponse{
			FromStatus: string(e.FromStatus),
			ToStatus:   string(e.ToStatus),
			ActorID:    e.ActorID,
			ActorRole:  string(e.ActorRole),
			CreatedAt:  e.CreatedAt,
		})
	}

	return resp
}
