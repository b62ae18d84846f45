package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems() []OrderItem {
	return []OrderItem{
		{ProductID: "p-1", SKU: "SKU-1", Name: "Widget", UnitPrice: 500, Quantity: 2, LineTotal: 1000},
	}
}

func newTestOrder(t *testing.T, method PaymentMethod) *Order {
	t.Helper()
	order, err := NewOrder("o-1", "ORD-20260829-ABC123", "c-1", "INR", testItems(),
		1000, 50, 99, 171, method, "SAVE10", Address{Name: "A", Line1: "1 Main St", City: "Pune", PostalCode: "411001", Country: "IN"})
	require.NoError(t, err)
	return order
}

func TestNewOrder_ComputesTotalInvariant(t *testing.T) {
	order := newTestOrder(t, PaymentMethodOnline)

	assert.Equal(t, int64(1000-50+99+171), order.Total)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, PaymentPending, order.PaymentStatus)
	assert.NoError(t, order.CheckInvariant())
}

func TestNewOrder_RejectsNegativeTotal(t *testing.T) {
	_, err := NewOrder("o-1", "ORD-X", "c-1", "INR", testItems(),
		1000, 2000, 0, 0, PaymentMethodOnline, "", Address{})

	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectNegativeTotal, rej.Code)
}

func TestStatus_TransitionTable(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusProcessing))
	assert.True(t, StatusPending.CanTransitionTo(StatusOnHold))
	assert.True(t, StatusPending.CanTransitionTo(StatusCancelled))
	assert.True(t, StatusProcessing.CanTransitionTo(StatusCompleted))
	assert.True(t, StatusProcessing.CanTransitionTo(StatusRefunded))
	assert.True(t, StatusOnHold.CanTransitionTo(StatusProcessing))
	assert.True(t, StatusCompleted.CanTransitionTo(StatusRefunded))

	assert.False(t, StatusCompleted.CanTransitionTo(StatusPending))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusProcessing))
	assert.False(t, StatusRefunded.CanTransitionTo(StatusCompleted))
	assert.False(t, StatusPending.CanTransitionTo(StatusCompleted))

	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusRefunded.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
}

func TestMarkPaid_MovesToProcessingPaid(t *testing.T) {
	order := newTestOrder(t, PaymentMethodOnline)

	require.NoError(t, order.MarkPaid())

	assert.Equal(t, StatusProcessing, order.Status)
	assert.Equal(t, PaymentPaid, order.PaymentStatus)
}

func TestMarkPaid_RejectedAfterCancellation(t *testing.T) {
	order := newTestOrder(t, PaymentMethodOnline)
	require.NoError(t, order.Cancel())

	err := order.MarkPaid()

	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StatusCancelled, order.Status, "late confirmation must not resurrect the order")
}

func TestMarkPaid_RejectedWhenAlreadyPaid(t *testing.T) {
	order := newTestOrder(t, PaymentMethodOnline)
	require.NoError(t, order.MarkPaid())

	assert.ErrorIs(t, order.MarkPaid(), ErrIllegalTransition)
}

func TestMarkPaymentFailed_CancelsOrder(t *testing.T) {
	order := newTestOrder(t, PaymentMethodOnline)

	require.NoError(t, order.MarkPaymentFailed())

	assert.Equal(t, StatusCancelled, order.Status)
	assert.Equal(t, PaymentFailed, order.PaymentStatus)
}

func TestMarkPaymentFailed_KeepsHeldOrderOnHold(t *testing.T) {
	order := newTestOrder(t, PaymentMethodOnline)
	require.NoError(t, order.Hold())

	require.NoError(t, order.MarkPaymentFailed())

	assert.Equal(t, StatusOnHold, order.Status)
	assert.Equal(t, PaymentFailed, order.PaymentStatus)
}

func TestConfirmCashOnDelivery(t *testing.T) {
	cod := newTestOrder(t, PaymentMethodCOD)

	require.NoError(t, cod.ConfirmCashOnDelivery())

	assert.Equal(t, StatusProcessing, cod.Status)
	assert.Equal(t, PaymentPending, cod.PaymentStatus, "COD payment is reconciled offline")

	online := newTestOrder(t, PaymentMethodOnline)
	assert.ErrorIs(t, online.ConfirmCashOnDelivery(), ErrIllegalTransition)
}

func TestRefund_RequiresPaidOrder(t *testing.T) {
	order := newTestOrder(t, PaymentMethodOnline)

	assert.ErrorIs(t, order.Refund(), ErrIllegalTransition)

	require.NoError(t, order.MarkPaid())
	require.NoError(t, order.Complete())
	require.NoError(t, order.Refund())

	assert.Equal(t, StatusRefunded, order.Status)
	assert.Equal(t, PaymentRefunded, order.PaymentStatus)
}

func TestCancel_RejectedInTerminalState(t *testing.T) {
	order := newTestOrder(t, PaymentMethodOnline)
	require.NoError(t, order.Cancel())

	assert.ErrorIs(t, order.Cancel(), ErrIllegalTransition)
}
