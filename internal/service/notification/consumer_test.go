package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	checkoutdomain "bazaar/internal/service/checkout/domain"
)

func TestRender_FormatsAmountInMajorUnits(t *testing.T) {
	event := &checkoutdomain.NotificationEvent{
		Kind:        checkoutdomain.NotifyOrderPaid,
		OrderNumber: "ORD-20260829-AB12CD",
		Total:       127905,
		Currency:    "INR",
	}

	subject, body := render(event)

	assert.Equal(t, "Order ORD-20260829-AB12CD confirmed", subject)
	assert.Contains(t, body, "1279.05 INR")
}

func TestRender_PerKindSubjects(t *testing.T) {
	cases := []struct {
		kind        checkoutdomain.NotificationKind
		wantSubject string
	}{
		{checkoutdomain.NotifyOrderCreated, "Order ORD-1 received"},
		{checkoutdomain.NotifyPaymentFailed, "Payment failed for order ORD-1"},
		{checkoutdomain.NotifyOrderCancelled, "Order ORD-1 cancelled"},
		{checkoutdomain.NotifyRefundRequired, "Refund required for order ORD-1"},
	}
	for _, tc := range cases {
		event := &checkoutdomain.NotificationEvent{Kind: tc.kind, OrderNumber: "ORD-1", Currency: "INR"}
		subject, body := render(event)
		assert.Equal(t, tc.wantSubject, subject, string(tc.kind))
		assert.NotEmpty(t, body)
	}
}

func TestRender_UnknownKindFallsBackToStatusLine(t *testing.T) {
	event := &checkoutdomain.NotificationEvent{
		Kind:        checkoutdomain.NotificationKind("SOMETHING_NEW"),
		OrderNumber: "ORD-1",
		Status:      checkoutdomain.StatusOnHold,
	}

	subject, body := render(event)

	assert.Equal(t, "Update for order ORD-1", subject)
	assert.Contains(t, body, string(checkoutdomain.StatusOnHold))
}
