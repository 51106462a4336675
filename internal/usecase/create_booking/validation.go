package create_booking

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request, now time.Time) error {
	if req.RequesterID <= 0 {
		return fmt.Errorf("%w: requesterID must be positive", ErrInvalidInput)
	}

	if req.ResourceID <= 0 {
		return fmt.Errorf("%w: resourceID must be positive", ErrInvalidInput)
	}

	switch domain.ResourceType(req.ResourceType) {
	case domain.ResourceTrip:
		return validateSeats(req.Seats)
	case domain.ResourceVehicle:
		return validateDateRange(req.StartDate, req.EndDate, now)
	default:
		return fmt.Errorf("%w: unknown resource type %q", ErrInvalidInput, req.ResourceType)
	}
}

// validateSeats проверяет количество запрашиваемых мест
func validateSeats(seats int) error {
	if seats < domain.MinSeatsPerBooking {
		return fmt.Errorf("%w: at least %d seat must be requested", ErrInvalidInput, domain.MinSeatsPerBooking)
	}
	if seats > domain.MaxSeatsPerBooking {
		return fmt.Errorf("%w: at most %d seats per booking", ErrInvalidInput, domain.MaxSeatsPerBooking)
	}
	return nil
}

// validateDateRange проверяет диапазон дат аренды
func validateDateRange(start, end *time.Time, now time.Time) error {
	if start == nil || end == nil {
		return fmt.Errorf("%w: startDate and endDate are required", ErrInvalidInput)
	}

	rng := domain.DateRange{Start: *start, End: *end}
	if !rng.IsValid() {
		return fmt.Errorf("%w: endDate must be after startDate", ErrInvalidDateRange)
	}

	if rng.Days() > domain.MaxRentalDays {
		return fmt.Errorf("%w: rental cannot exceed %d days", ErrInvalidDateRange, domain.MaxRentalDays)
	}

	// Начало аренды не может быть раньше сегодняшнего дня
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if rng.Start.Before(nowDay) {
		return fmt.Errorf("%w: startDate is in the past", ErrInvalidDateRange)
	}

	return nil
}

// hasRangeConflict проверяет пересечение запрошенного диапазона
// с уже занятыми диапазонами (отсортированы по началу)
func hasRangeConflict(rng domain.DateRange, booked []*domain.BookedRange) bool {
	for _, br := range booked {
		if !br.Range.Start.Before(rng.End) {
			break
		}
		if br.Range.Overlaps(rng) {
			return true
		}
	}
	return false
}
