package transition_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	bookingStorage "github.com/m04kA/SMC-RentalService/internal/infra/storage/booking"
	resourceStorage "github.com/m04kA/SMC-RentalService/internal/infra/storage/resource"
	"github.com/m04kA/SMC-RentalService/internal/integrations/notifyservice"
	"github.com/m04kA/SMC-RentalService/pkg/ptr"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

// --- фейки ---

type fakeBookingRepo struct {
	booking *domain.Booking
	history []*domain.StatusHistoryEntry

	// Число обновлений, которые проиграют гонку
	staleWrites int
	// Мутация состояния при проигрыше гонки (конкурент успел первым)
	onStale func(b *domain.Booking)

	updateCalls int
	cancelCalls int
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id int64) (*domain.Booking, error) {
	if f.booking == nil || f.booking.ID != id {
		return nil, bookingStorage.ErrBookingNotFound
	}
	copied := *f.booking
	return &copied, nil
}

func (f *fakeBookingRepo) UpdateStatusCAS(_ context.Context, id int64, from, to domain.BookingStatus, deadline *time.Time, clearDeadline bool) error {
	f.updateCalls++
	if f.staleWrites > 0 {
		f.staleWrites--
		if f.onStale != nil {
			f.onStale(f.booking)
		}
		return bookingStorage.ErrStaleWrite
	}
	if f.booking == nil || f.booking.ID != id {
		return bookingStorage.ErrBookingNotFound
	}
	if f.booking.Status != from {
		return bookingStorage.ErrStaleWrite
	}
	f.booking.Status = to
	if deadline != nil {
		f.booking.PaymentDeadline = deadline
	}
	if clearDeadline {
		f.booking.PaymentDeadline = nil
	}
	return nil
}

func (f *fakeBookingRepo) CancelCAS(_ context.Context, id int64, from domain.BookingStatus, reason *string) error {
	f.cancelCalls++
	if f.booking == nil || f.booking.ID != id {
		return bookingStorage.ErrBookingNotFound
	}
	if f.booking.Status != from {
		return bookingStorage.ErrStaleWrite
	}
	f.booking.Status = domain.StatusCancelled
	f.booking.CancellationReason = reason
	f.booking.PaymentDeadline = nil
	return nil
}

func (f *fakeBookingRepo) AppendHistory(_ context.Context, entry *domain.StatusHistoryEntry) error {
	f.history = append(f.history, entry)
	return nil
}

type fakeLedger struct {
	commits    int
	releases   int
	failCommit bool
}

func (f *fakeLedger) TryCommit(_ context.Context, _ *domain.Booking) error {
	if f.failCommit {
		return resourceStorage.ErrCapacityExceeded
	}
	f.commits++
	return nil
}

func (f *fakeLedger) Release(_ context.Context, _ *domain.Booking) error {
	f.releases++
	return nil
}

type fakeNotifier struct {
	events []*notifyservice.TransitionEvent
}

func (f *fakeNotifier) PublishTransition(_ context.Context, event *notifyservice.TransitionEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// --- сборка ---

func testBooking(status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:           1,
		ResourceType: domain.ResourceTrip,
		ResourceID:   10,
		RequesterID:  100,
		OwnerID:      200,
		Seats:        2,
		Status:       status,
	}
}

func newTestUseCase(repo *fakeBookingRepo, ledger ResourceLedger, notifier *fakeNotifier) *UseCase {
	uc := NewUseCase(repo, ledger, notifier, fakeTxManager{}, 15*time.Minute, NoopMetrics{}, nopLogger{})
	uc.timeProvider = fixedClock{now: testNow}
	return uc
}

// --- тесты ---

func TestExecute_ApproveCommitsCapacityAndSetsDeadline(t *testing.T) {
	repo := &fakeBookingRepo{booking: testBooking(domain.StatusPending)}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	uc := newTestUseCase(repo, ledger, notifier)

	resp, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "approve",
		ActorID:   200,
		ActorRole: "owner",
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusAwaitingPayment), resp.Status)
	assert.Equal(t, string(domain.StatusPending), resp.FromStatus)
	require.NotNil(t, resp.PaymentDeadline)
	assert.Equal(t, testNow.Add(15*time.Minute), *resp.PaymentDeadline)

	assert.Equal(t, 1, ledger.commits)
	assert.Equal(t, domain.StatusAwaitingPayment, repo.booking.Status)
	require.Len(t, repo.history, 1)
	assert.Equal(t, domain.StatusPending, repo.history[0].FromStatus)
	assert.Equal(t, domain.StatusAwaitingPayment, repo.history[0].ToStatus)
	require.Len(t, notifier.events, 1)
	assert.NotEmpty(t, notifier.events[0].EventID)
}

func TestExecute_ApproveCapacityExceeded(t *testing.T) {
	repo := &fakeBookingRepo{booking: testBooking(domain.StatusPending)}
	ledger := &fakeLedger{failCommit: true}
	uc := newTestUseCase(repo, ledger, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "approve",
		ActorID:   200,
		ActorRole: "owner",
	})
	require.ErrorIs(t, err, ErrCapacityExceeded)

	// Статус не меняется, бронирование остаётся pending
	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, domain.StatusPending, rejection.CurrentStatus)
	assert.Equal(t, domain.StatusPending, repo.booking.Status)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestExecute_ApproveByWrongOwnerDenied(t *testing.T) {
	repo := &fakeBookingRepo{booking: testBooking(domain.StatusPending)}
	uc := newTestUseCase(repo, &fakeLedger{}, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "approve",
		ActorID:   999,
		ActorRole: "owner",
	})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestExecute_PayAfterDeadlineRejected(t *testing.T) {
	booking := testBooking(domain.StatusAwaitingPayment)
	booking.PaymentDeadline = ptr.Ptr(testNow.Add(-time.Minute))
	repo := &fakeBookingRepo{booking: booking}
	uc := newTestUseCase(repo, &fakeLedger{}, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "pay",
		ActorID:   100,
		ActorRole: "requester",
	})
	require.ErrorIs(t, err, ErrInvalidTransition)

	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, domain.StatusAwaitingPayment, rejection.CurrentStatus)
}

func TestExecute_PayBeforeDeadlineConfirms(t *testing.T) {
	booking := testBooking(domain.StatusAwaitingPayment)
	booking.PaymentDeadline = ptr.Ptr(testNow.Add(10 * time.Minute))
	repo := &fakeBookingRepo{booking: booking}
	ledger := &fakeLedger{}
	uc := newTestUseCase(repo, ledger, &fakeNotifier{})

	resp, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "pay",
		ActorID:   100,
		ActorRole: "requester",
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	assert.Nil(t, resp.PaymentDeadline)
	assert.Nil(t, repo.booking.PaymentDeadline)
	// Оплата не трогает леджер: ёмкость уже зафиксирована при approve
	assert.Equal(t, 0, ledger.commits)
	assert.Equal(t, 0, ledger.releases)
}

func TestExecute_ExpireReleasesCapacity(t *testing.T) {
	booking := testBooking(domain.StatusAwaitingPayment)
	booking.PaymentDeadline = ptr.Ptr(testNow.Add(-time.Minute))
	repo := &fakeBookingRepo{booking: booking}
	ledger := &fakeLedger{}
	uc := newTestUseCase(repo, ledger, &fakeNotifier{})

	resp, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "expire",
		ActorID:   0,
		ActorRole: "system",
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusExpired), resp.Status)
	assert.Equal(t, 1, ledger.releases)
}

func TestExecute_DoubleExpireIsNoop(t *testing.T) {
	repo := &fakeBookingRepo{booking: testBooking(domain.StatusExpired)}
	ledger := &fakeLedger{}
	notifier := &fakeNotifier{}
	uc := newTestUseCase(repo, ledger, notifier)

	resp, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "expire",
		ActorID:   0,
		ActorRole: "system",
	})
	require.NoError(t, err)

	assert.True(t, resp.Noop)
	assert.Equal(t, string(domain.StatusExpired), resp.Status)
	// No-op ничего не пишет и не эмитит
	assert.Equal(t, 0, ledger.releases)
	assert.Equal(t, 0, repo.updateCalls)
	assert.Empty(t, repo.history)
	assert.Empty(t, notifier.events)
}

func TestExecute_CancelConfirmedReleasesAndStoresReason(t *testing.T) {
	repo := &fakeBookingRepo{booking: testBooking(domain.StatusConfirmed)}
	ledger := &fakeLedger{}
	uc := newTestUseCase(repo, ledger, &fakeNotifier{})

	reason := "plans changed"
	resp, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "cancel",
		ActorID:   100,
		ActorRole: "requester",
		Reason:    &reason,
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	assert.Equal(t, 1, ledger.releases)
	assert.Equal(t, 1, repo.cancelCalls)
	require.NotNil(t, repo.booking.CancellationReason)
	assert.Equal(t, reason, *repo.booking.CancellationReason)
}

func TestExecute_CancelPendingDoesNotTouchLedger(t *testing.T) {
	repo := &fakeBookingRepo{booking: testBooking(domain.StatusPending)}
	ledger := &fakeLedger{}
	uc := newTestUseCase(repo, ledger, &fakeNotifier{})

	resp, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "cancel",
		ActorID:   200,
		ActorRole: "owner",
	})
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	assert.Equal(t, 0, ledger.releases)
}

func TestExecute_StaleWriteRetriedOnce(t *testing.T) {
	// Конкурентный pay выигрывает гонку: повторная попытка approve
	// отклоняется по актуальному статусу confirmed
	repo := &fakeBookingRepo{
		booking:     testBooking(domain.StatusPending),
		staleWrites: 1,
		onStale: func(b *domain.Booking) {
			b.Status = domain.StatusConfirmed
		},
	}
	uc := newTestUseCase(repo, &fakeLedger{}, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "approve",
		ActorID:   200,
		ActorRole: "owner",
	})
	require.ErrorIs(t, err, ErrInvalidTransition)

	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, domain.StatusConfirmed, rejection.CurrentStatus)
	// Первая попытка дошла до записи, вторая отклонилась на планировании
	assert.Equal(t, 1, repo.updateCalls)
}

func TestExecute_StaleWriteTwiceSurfaces(t *testing.T) {
	repo := &fakeBookingRepo{
		booking:     testBooking(domain.StatusPending),
		staleWrites: 2,
	}
	uc := newTestUseCase(repo, &fakeLedger{}, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "approve",
		ActorID:   200,
		ActorRole: "owner",
	})
	require.ErrorIs(t, err, ErrStaleWrite)
	assert.Equal(t, 2, repo.updateCalls)
}

// seatLedger стейтфул-фейк пула мест поездки
type seatLedger struct {
	capacity  int
	remaining int
}

func (l *seatLedger) TryCommit(_ context.Context, b *domain.Booking) error {
	if b.Seats > l.remaining {
		return resourceStorage.ErrCapacityExceeded
	}
	l.remaining -= b.Seats
	return nil
}

func (l *seatLedger) Release(_ context.Context, b *domain.Booking) error {
	if l.remaining+b.Seats > l.capacity {
		return resourceStorage.ErrLedgerInconsistent
	}
	l.remaining += b.Seats
	return nil
}

func TestExecute_SeatPoolExhaustion(t *testing.T) {
	// Пул из 3 мест, заявки на 2, 2 и 1: вторая проигрывает, третья проходит
	ledger := &seatLedger{capacity: 3, remaining: 3}

	approve := func(id int64, seats int) error {
		b := testBooking(domain.StatusPending)
		b.ID = id
		b.Seats = seats
		repo := &fakeBookingRepo{booking: b}
		uc := newTestUseCase(repo, ledger, &fakeNotifier{})
		_, err := uc.Execute(context.Background(), &Request{
			BookingID: id,
			Action:    "approve",
			ActorID:   200,
			ActorRole: "owner",
		})
		return err
	}

	require.NoError(t, approve(1, 2))
	require.ErrorIs(t, approve(2, 2), ErrCapacityExceeded)
	require.NoError(t, approve(3, 1))
	assert.Equal(t, 0, ledger.remaining)
}

func TestExecute_CommitThenReleaseRestoresPool(t *testing.T) {
	ledger := &seatLedger{capacity: 4, remaining: 4}
	booking := testBooking(domain.StatusPending)
	repo := &fakeBookingRepo{booking: booking}
	uc := newTestUseCase(repo, ledger, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "approve",
		ActorID:   200,
		ActorRole: "owner",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.remaining)

	_, err = uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "cancel",
		ActorID:   100,
		ActorRole: "requester",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, ledger.remaining)
}

func TestExecute_BookingNotFound(t *testing.T) {
	repo := &fakeBookingRepo{}
	uc := newTestUseCase(repo, &fakeLedger{}, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: 404,
		Action:    "approve",
		ActorID:   200,
		ActorRole: "owner",
	})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestExecute_UnknownActionRejected(t *testing.T) {
	repo := &fakeBookingRepo{booking: testBooking(domain.StatusPending)}
	uc := newTestUseCase(repo, &fakeLedger{}, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), &Request{
		BookingID: 1,
		Action:    "teleport",
		ActorID:   200,
		ActorRole: "owner",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
