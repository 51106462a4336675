package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(d int) time.Time {
	return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRange_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b DateRange
		want bool
	}{
		{
			name: "partial overlap",
			a:    DateRange{Start: day(5), End: day(8)},
			b:    DateRange{Start: day(6), End: day(9)},
			want: true,
		},
		{
			name: "contained range",
			a:    DateRange{Start: day(1), End: day(10)},
			b:    DateRange{Start: day(3), End: day(5)},
			want: true,
		},
		{
			name: "identical ranges",
			a:    DateRange{Start: day(5), End: day(8)},
			b:    DateRange{Start: day(5), End: day(8)},
			want: true,
		},
		{
			name: "touching boundaries do not overlap",
			a:    DateRange{Start: day(5), End: day(8)},
			b:    DateRange{Start: day(8), End: day(10)},
			want: false,
		},
		{
			name: "disjoint ranges",
			a:    DateRange{Start: day(1), End: day(3)},
			b:    DateRange{Start: day(10), End: day(12)},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// Пересечение симметрично
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestDateRange_IsValid(t *testing.T) {
	assert.True(t, DateRange{Start: day(1), End: day(2)}.IsValid())
	assert.False(t, DateRange{Start: day(2), End: day(2)}.IsValid())
	assert.False(t, DateRange{Start: day(3), End: day(2)}.IsValid())
}

func TestDateRange_Days(t *testing.T) {
	assert.Equal(t, 3, DateRange{Start: day(5), End: day(8)}.Days())
	assert.Equal(t, 1, DateRange{Start: day(5), End: day(6)}.Days())
}

func TestTrip_HasSeats(t *testing.T) {
	trip := &Trip{SeatCapacity: 4, SeatsRemaining: 2}

	assert.True(t, trip.HasSeats(1))
	assert.True(t, trip.HasSeats(2))
	assert.False(t, trip.HasSeats(3))
	assert.False(t, trip.HasSeats(0))
	assert.False(t, trip.HasSeats(-1))
}

func TestBooking_HoldsCapacity(t *testing.T) {
	holding := map[BookingStatus]bool{
		StatusPending:         false,
		StatusAwaitingPayment: true,
		StatusConfirmed:       true,
		StatusOngoing:         true,
		StatusCompleted:       false,
		StatusCancelled:       false,
		StatusRejected:        false,
		StatusExpired:         false,
	}

	for status, want := range holding {
		b := &Booking{Status: status}
		assert.Equal(t, want, b.HoldsCapacity(), "status %s", status)
	}
}

func TestBooking_IsTerminal(t *testing.T) {
	for _, status := range TerminalStatuses {
		b := &Booking{Status: status}
		assert.True(t, b.IsTerminal(), "status %s", status)
	}

	for _, status := range []BookingStatus{
		StatusPending, StatusAwaitingPayment, StatusConfirmed, StatusOngoing,
	} {
		b := &Booking{Status: status}
		assert.False(t, b.IsTerminal(), "status %s", status)
	}
}
