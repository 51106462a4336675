package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func bookingInStatus(status BookingStatus) *Booking {
	return &Booking{
		ID:           1,
		ResourceType: ResourceTrip,
		ResourceID:   10,
		RequesterID:  100,
		OwnerID:      200,
		Seats:        2,
		Status:       status,
	}
}

func TestPlanTransition_Approve(t *testing.T) {
	b := bookingInStatus(StatusPending)

	tr, err := PlanTransition(b, ActionApprove, RoleOwner, testNow)
	require.NoError(t, err)

	assert.Equal(t, StatusPending, tr.From)
	assert.Equal(t, StatusAwaitingPayment, tr.To)
	assert.Equal(t, LedgerCommit, tr.Ledger)
	assert.True(t, tr.SetDeadline)
	assert.False(t, tr.Noop)
}

func TestPlanTransition_ApproveRequiresOwner(t *testing.T) {
	b := bookingInStatus(StatusPending)

	_, err := PlanTransition(b, ActionApprove, RoleRequester, testNow)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)

	_, err = PlanTransition(b, ActionApprove, RoleSystem, testNow)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)
}

func TestPlanTransition_ApproveOnlyFromPending(t *testing.T) {
	for _, status := range []BookingStatus{
		StatusAwaitingPayment, StatusConfirmed, StatusOngoing,
		StatusCompleted, StatusCancelled, StatusRejected, StatusExpired,
	} {
		b := bookingInStatus(status)
		_, err := PlanTransition(b, ActionApprove, RoleOwner, testNow)
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
	}
}

func TestPlanTransition_Reject(t *testing.T) {
	b := bookingInStatus(StatusPending)

	tr, err := PlanTransition(b, ActionReject, RoleOwner, testNow)
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, tr.To)
	assert.Equal(t, LedgerNone, tr.Ledger)
}

func TestPlanTransition_PayBeforeDeadline(t *testing.T) {
	deadline := testNow.Add(10 * time.Minute)
	b := bookingInStatus(StatusAwaitingPayment)
	b.PaymentDeadline = &deadline

	tr, err := PlanTransition(b, ActionPay, RoleRequester, testNow)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, tr.To)
	assert.Equal(t, LedgerNone, tr.Ledger)
	assert.True(t, tr.ClearDeadline)
}

func TestPlanTransition_PayAfterDeadlineRejected(t *testing.T) {
	deadline := testNow.Add(-time.Minute)
	b := bookingInStatus(StatusAwaitingPayment)
	b.PaymentDeadline = &deadline

	_, err := PlanTransition(b, ActionPay, RoleRequester, testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPlanTransition_PayExactlyAtDeadlineRejected(t *testing.T) {
	deadline := testNow
	b := bookingInStatus(StatusAwaitingPayment)
	b.PaymentDeadline = &deadline

	_, err := PlanTransition(b, ActionPay, RoleRequester, testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPlanTransition_PayRequiresRequester(t *testing.T) {
	deadline := testNow.Add(10 * time.Minute)
	b := bookingInStatus(StatusAwaitingPayment)
	b.PaymentDeadline = &deadline

	_, err := PlanTransition(b, ActionPay, RoleOwner, testNow)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)
}

func TestPlanTransition_Expire(t *testing.T) {
	deadline := testNow.Add(-time.Minute)
	b := bookingInStatus(StatusAwaitingPayment)
	b.PaymentDeadline = &deadline

	tr, err := PlanTransition(b, ActionExpire, RoleSystem, testNow)
	require.NoError(t, err)

	assert.Equal(t, StatusExpired, tr.To)
	assert.Equal(t, LedgerRelease, tr.Ledger)
	assert.True(t, tr.ClearDeadline)
}

func TestPlanTransition_ExpireBeforeDeadlineRejected(t *testing.T) {
	deadline := testNow.Add(5 * time.Minute)
	b := bookingInStatus(StatusAwaitingPayment)
	b.PaymentDeadline = &deadline

	_, err := PlanTransition(b, ActionExpire, RoleSystem, testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestPlanTransition_ExpireOnTerminalIsNoop(t *testing.T) {
	for _, status := range []BookingStatus{
		StatusCompleted, StatusCancelled, StatusRejected, StatusExpired,
	} {
		b := bookingInStatus(status)

		tr, err := PlanTransition(b, ActionExpire, RoleSystem, testNow)
		require.NoError(t, err, "status %s", status)
		assert.True(t, tr.Noop, "status %s", status)
		assert.Equal(t, LedgerNone, tr.Ledger, "status %s", status)
	}
}

func TestPlanTransition_ExpireRequiresSystem(t *testing.T) {
	b := bookingInStatus(StatusAwaitingPayment)

	_, err := PlanTransition(b, ActionExpire, RoleOwner, testNow)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)
}

func TestPlanTransition_ConfirmPickup(t *testing.T) {
	b := bookingInStatus(StatusConfirmed)

	tr, err := PlanTransition(b, ActionConfirmPickup, RoleRequester, testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusOngoing, tr.To)
}

func TestPlanTransition_Complete(t *testing.T) {
	for _, status := range []BookingStatus{StatusConfirmed, StatusOngoing} {
		b := bookingInStatus(status)

		tr, err := PlanTransition(b, ActionComplete, RoleOwner, testNow)
		require.NoError(t, err, "status %s", status)
		assert.Equal(t, StatusCompleted, tr.To)
		// Завершённое бронирование остаётся в занятой ёмкости ресурса
		assert.Equal(t, LedgerNone, tr.Ledger)
	}
}

func TestPlanTransition_CompleteBySystem(t *testing.T) {
	b := bookingInStatus(StatusOngoing)

	_, err := PlanTransition(b, ActionComplete, RoleSystem, testNow)
	assert.NoError(t, err)
}

func TestPlanTransition_CancelReleasesHeldCapacity(t *testing.T) {
	for _, status := range []BookingStatus{
		StatusAwaitingPayment, StatusConfirmed, StatusOngoing,
	} {
		b := bookingInStatus(status)

		tr, err := PlanTransition(b, ActionCancel, RoleRequester, testNow)
		require.NoError(t, err, "status %s", status)
		assert.Equal(t, StatusCancelled, tr.To)
		assert.Equal(t, LedgerRelease, tr.Ledger, "status %s", status)
	}
}

func TestPlanTransition_CancelPendingReleasesNothing(t *testing.T) {
	b := bookingInStatus(StatusPending)

	tr, err := PlanTransition(b, ActionCancel, RoleOwner, testNow)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, tr.To)
	assert.Equal(t, LedgerNone, tr.Ledger)
}

func TestPlanTransition_DoubleCancelIsNoop(t *testing.T) {
	b := bookingInStatus(StatusCancelled)

	tr, err := PlanTransition(b, ActionCancel, RoleRequester, testNow)
	require.NoError(t, err)
	assert.True(t, tr.Noop)
}

func TestPlanTransition_CancelOtherTerminalRejected(t *testing.T) {
	for _, status := range []BookingStatus{StatusCompleted, StatusRejected, StatusExpired} {
		b := bookingInStatus(status)
		_, err := PlanTransition(b, ActionCancel, RoleRequester, testNow)
		assert.ErrorIs(t, err, ErrInvalidTransition, "status %s", status)
	}
}

func TestPlanTransition_CancelRequiresParty(t *testing.T) {
	b := bookingInStatus(StatusConfirmed)

	_, err := PlanTransition(b, ActionCancel, RoleSystem, testNow)
	assert.ErrorIs(t, err, ErrUnauthorizedActor)
}

func TestPlanTransition_UnknownAction(t *testing.T) {
	b := bookingInStatus(StatusPending)

	_, err := PlanTransition(b, Action("refund"), RoleOwner, testNow)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestParseAction(t *testing.T) {
	action, err := ParseAction("approve")
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, action)

	_, err = ParseAction("teleport")
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus("awaiting_payment")
	require.NoError(t, err)
	assert.Equal(t, StatusAwaitingPayment, status)

	_, err = ParseStatus("unknown")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}
