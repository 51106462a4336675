package domain

import "time"

// DateRange полуоткрытый интервал дат [Start, End)
type DateRange struct {
	Start time.Time
	End   time.Time
}

// IsValid returns true if the range is non-empty
func (r DateRange) IsValid() bool {
	return r.Start.Before(r.End)
}

// Overlaps returns true if the two ranges share at least one day.
// Границы не пересекаются: [5, 8) и [8, 10) совместимы.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Days returns the number of whole days covered by the range
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start).Hours() / 24)
}

// Vehicle is a rentable vehicle resource
type Vehicle struct {
	ID         int64
	OwnerID    int64
	DailyPrice float64
	Currency   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BookedRange one committed date range of a vehicle
// Committed ranges of a vehicle must be pairwise non-overlapping
type BookedRange struct {
	VehicleID int64
	BookingID int64
	Range     DateRange
}

// Trip is a scheduled shared trip with a finite seat pool
type Trip struct {
	ID           int64
	DriverID     int64
	SeatCapacity int
	// Invariant: 0 <= SeatsRemaining <= SeatCapacity
	SeatsRemaining int
	DepartsAt      time.Time
	SeatPrice      float64
	Currency       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasSeats returns true if the trip can still satisfy a request for n seats
func (t *Trip) HasSeats(n int) bool {
	return n > 0 && n <= t.SeatsRemaining
}
