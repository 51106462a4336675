package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/usecase/transition_booking"
)

// --- фейки ---

type fakeLister struct {
	bookings []*domain.Booking
	err      error
}

func (f *fakeLister) ListExpiredHolds(_ context.Context, _ time.Time) ([]*domain.Booking, error) {
	return f.bookings, f.err
}

type fakeExecutor struct {
	requests  []*transition_booking.Request
	responses map[int64]*transition_booking.Response
	errs      map[int64]error
}

func (f *fakeExecutor) Execute(_ context.Context, req *transition_booking.Request) (*transition_booking.Response, error) {
	f.requests = append(f.requests, req)
	if err, ok := f.errs[req.BookingID]; ok {
		return nil, err
	}
	if resp, ok := f.responses[req.BookingID]; ok {
		return resp, nil
	}
	return &transition_booking.Response{ID: req.BookingID, Status: string(domain.StatusExpired)}, nil
}

type recordingMetrics struct {
	expired int
	err     error
	calls   int
}

func (m *recordingMetrics) ObserveSweep(expired int, err error) {
	m.expired = expired
	m.err = err
	m.calls++
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func expiredBooking(id int64) *domain.Booking {
	return &domain.Booking{
		ID:           id,
		ResourceType: domain.ResourceTrip,
		ResourceID:   10,
		Status:       domain.StatusAwaitingPayment,
	}
}

// --- тесты ---

func TestRun_ExpiresAllOverdueHolds(t *testing.T) {
	lister := &fakeLister{bookings: []*domain.Booking{
		expiredBooking(1), expiredBooking(2), expiredBooking(3),
	}}
	executor := &fakeExecutor{}
	metrics := &recordingMetrics{}
	svc := NewService(lister, executor, metrics, nopLogger{})

	count, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, count)
	require.Len(t, executor.requests, 3)
	for _, req := range executor.requests {
		assert.Equal(t, string(domain.ActionExpire), req.Action)
		assert.Equal(t, string(domain.RoleSystem), req.ActorRole)
		assert.Equal(t, int64(0), req.ActorID)
	}
	assert.Equal(t, 3, metrics.expired)
}

func TestRun_EmptySweepIsFine(t *testing.T) {
	svc := NewService(&fakeLister{}, &fakeExecutor{}, &recordingMetrics{}, nopLogger{})

	count, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRun_ToleratesConcurrentTransitions(t *testing.T) {
	// Бронирование 2 успели оплатить, бронирование 3 истёк другой свипер
	lister := &fakeLister{bookings: []*domain.Booking{
		expiredBooking(1), expiredBooking(2), expiredBooking(3),
	}}
	executor := &fakeExecutor{
		errs: map[int64]error{
			2: transition_booking.ErrInvalidTransition,
		},
		responses: map[int64]*transition_booking.Response{
			3: {ID: 3, Status: string(domain.StatusExpired), Noop: true},
		},
	}
	metrics := &recordingMetrics{}
	svc := NewService(lister, executor, metrics, nopLogger{})

	count, err := svc.Run(context.Background())
	require.NoError(t, err)

	// Посчитано только реально истёкшее бронирование
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, metrics.expired)
}

func TestRun_ListFailureSurfaces(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	metrics := &recordingMetrics{}
	svc := NewService(lister, &fakeExecutor{}, metrics, nopLogger{})

	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, ErrListExpired)
	assert.Equal(t, 1, metrics.calls)
	assert.Error(t, metrics.err)
}

func TestRun_ContinuesAfterTransitionError(t *testing.T) {
	lister := &fakeLister{bookings: []*domain.Booking{
		expiredBooking(1), expiredBooking(2),
	}}
	executor := &fakeExecutor{
		errs: map[int64]error{
			1: transition_booking.ErrInternal,
		},
	}
	svc := NewService(lister, executor, &recordingMetrics{}, nopLogger{})

	count, err := svc.Run(context.Background())
	require.NoError(t, err)

	// Ошибка на одном бронировании не прерывает прогон
	assert.Equal(t, 1, count)
	require.Len(t, executor.requests, 2)
}
