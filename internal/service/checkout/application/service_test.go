package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/service/checkout/domain"
	domainport "bazaar/internal/service/checkout/domain/port"
	checkoutport "bazaar/internal/service/checkout/port"
)

type fixture struct {
	service   *CheckoutService
	orders    *memOrderRepo
	attempts  *memAttemptRepo
	inventory *memInventory
	coupons   *mockCoupons
	gateway   *mockGateway
	notifier  *mockNotifier
	scheduler *mockScheduler
	catalog   *fakeCatalog
}

// fakeCatalog implements port.CatalogReader.
type fakeCatalog struct {
	items map[string]domainport.CatalogItem
}

func (f *fakeCatalog) ItemsByRefs(_ context.Context, _ []domainport.ItemRef) (map[string]domainport.CatalogItem, error) {
	return f.items, nil
}

func newFixture(stock map[string]int) *fixture {
	catalog := &fakeCatalog{items: map[string]domainport.CatalogItem{
		"p-1": {ProductID: "p-1", SKU: "SKU-1", Name: "Widget", UnitPrice: 500, Active: true},
		"p-2": {ProductID: "p-2", SKU: "SKU-2", Name: "Gadget", UnitPrice: 300, OnSale: true, Active: true},
	}}

	f := &fixture{
		orders:    newMemOrderRepo(),
		attempts:  newMemAttemptRepo(),
		inventory: newMemInventory(stock),
		coupons:   &mockCoupons{},
		gateway:   &mockGateway{intentID: "gw-1"},
		notifier:  &mockNotifier{},
		scheduler: &mockScheduler{},
		catalog:   catalog,
	}
	f.service = NewCheckoutService(
		f.orders,
		f.attempts,
		domain.NewPricingEngine(catalog, "INR"),
		f.coupons,
		f.inventory,
		f.gateway,
		f.notifier,
		f.scheduler,
		checkoutport.NopStatusPublisher{},
		checkoutport.NopLocker{},
		otel.Tracer("test"),
		bootstrap.CheckoutConfig{
			Currency:        "INR",
			ShippingFlat:    99,
			TaxRatePercent:  18,
			PaymentDeadline: time.Minute,
		},
	)
	return f
}

func submitReq(coupon string, method domain.PaymentMethod) *SubmitOrderRequest {
	return &SubmitOrderRequest{
		CustomerID:    "c-1",
		CouponCode:    coupon,
		PaymentMethod: method,
		Lines: []domain.SubmittedLine{
			{ProductID: "p-1", UnitPrice: 500, Quantity: 2},
		},
		Address: domain.Address{Name: "A", Line1: "1 Main St", City: "Pune", PostalCode: "411001", Country: "IN"},
	}
}

func TestSubmitOrder_OnlineHappyPath(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})

	resp, err := f.service.SubmitOrder(context.Background(), submitReq("", domain.PaymentMethodOnline))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, resp.Status)
	assert.Equal(t, domain.PaymentPending, resp.PaymentStatus)
	assert.Equal(t, int64(1000), resp.Subtotal)
	assert.Equal(t, int64(99), resp.ShippingCost)
	assert.Equal(t, int64(180), resp.Tax, "18 percent of 1000")
	assert.Equal(t, int64(1279), resp.Total)

	assert.Equal(t, 8, f.inventory.stockOf("SKU-1"))
	assert.Equal(t, 1, f.scheduler.count(), "online order schedules a payment timeout check")
	assert.Equal(t, []domain.NotificationKind{domain.NotifyOrderCreated}, f.notifier.kinds())
}

func TestSubmitOrder_CashOnDeliverySkipsGateway(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})

	resp, err := f.service.SubmitOrder(context.Background(), submitReq("", domain.PaymentMethodCOD))

	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, resp.Status)
	assert.Equal(t, domain.PaymentPending, resp.PaymentStatus)
	assert.Zero(t, f.scheduler.count(), "COD has no payment deadline")
}

func TestSubmitOrder_InsufficientStock(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 1})

	_, err := f.service.SubmitOrder(context.Background(), submitReq("", domain.PaymentMethodOnline))

	rej, ok := domain.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, domain.RejectInsufficientStock, rej.Code)
	assert.Equal(t, "SKU-1", rej.SKU)
	assert.Equal(t, 1, f.inventory.stockOf("SKU-1"), "failed reservation must not consume stock")
	assert.Nil(t, f.orders.single(), "no order row before reservation succeeds")
}

func TestSubmitOrder_CouponRejectionBeforeAnyMutation(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})
	f.coupons.validateErr = &domainport.CouponRejectedError{Code: "SAVE10", Reason: "ORDER_VALUE_OUT_OF_RANGE"}

	_, err := f.service.SubmitOrder(context.Background(), submitReq("SAVE10", domain.PaymentMethodOnline))

	rej, ok := domain.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, domain.RejectOrderValueOutOfRange, rej.Code)
	assert.Equal(t, 10, f.inventory.stockOf("SKU-1"))
	assert.Nil(t, f.orders.single())
}

func TestSubmitOrder_FreeShippingCouponZeroesShipping(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})
	f.coupons.quote = &domainport.CouponQuote{Code: "FREESHIP", FreeShipping: true}

	resp, err := f.service.SubmitOrder(context.Background(), submitReq("FREESHIP", domain.PaymentMethodOnline))

	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.ShippingCost)
	assert.Equal(t, int64(0), resp.Discount)
	assert.Equal(t, int64(1000+180), resp.Total)
}

func TestSubmitOrder_DiscountFlowsIntoTotals(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})
	f.coupons.quote = &domainport.CouponQuote{Code: "SAVE10", Discount: 50}

	resp, err := f.service.SubmitOrder(context.Background(), submitReq("SAVE10", domain.PaymentMethodOnline))

	require.NoError(t, err)
	assert.Equal(t, int64(50), resp.Discount)
	// tax base is subtotal-discount: 18% of 950 = 171
	assert.Equal(t, int64(171), resp.Tax)
	assert.Equal(t, int64(1000-50+99+171), resp.Total)
}

func TestSubmitOrder_ConcurrentLastUnit(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 2}) // each order takes 2 units

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.service.SubmitOrder(context.Background(), submitReq("", domain.PaymentMethodOnline))
		}(i)
	}
	wg.Wait()

	var succeeded, insufficient int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		if rej, ok := domain.AsRejection(err); ok && rej.Code == domain.RejectInsufficientStock {
			insufficient++
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one checkout wins the last unit")
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 0, f.inventory.stockOf("SKU-1"))
}

func TestCreatePaymentIntent_ReusesOpenAttempt(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})
	resp, err := f.service.SubmitOrder(context.Background(), submitReq("", domain.PaymentMethodOnline))
	require.NoError(t, err)

	first, err := f.service.CreatePaymentIntent(context.Background(), resp.OrderID)
	require.NoError(t, err)
	second, err := f.service.CreatePaymentIntent(context.Background(), resp.OrderID)
	require.NoError(t, err)

	assert.Equal(t, first.GatewayOrderID, second.GatewayOrderID)
	assert.Equal(t, 1, f.gateway.createWant, "second request must not open a second gateway intent")
	assert.Equal(t, resp.Total, first.Amount, "intent amount is the server-side total")
}

func TestConfirmPayment_SuccessFinalizesOrderAndRedeemsCoupon(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})
	f.coupons.quote = &domainport.CouponQuote{Code: "SAVE10", Discount: 50}

	resp, err := f.service.SubmitOrder(context.Background(), submitReq("SAVE10", domain.PaymentMethodOnline))
	require.NoError(t, err)
	intent, err := f.service.CreatePaymentIntent(context.Background(), resp.OrderID)
	require.NoError(t, err)

	verify, err := f.service.ConfirmPayment(context.Background(), domainport.Confirmation{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay-1",
		Signature:        "valid",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, verify.Status)
	assert.Equal(t, domain.PaymentPaid, verify.PaymentStatus)
	assert.Equal(t, domain.AttemptSucceeded, verify.Result)
	assert.Equal(t, 1, f.coupons.redeemCalls, "coupon counter increments exactly at PAID")

	stored, err := f.orders.FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.True(t, stored.CouponRedeemed)
	assert.Contains(t, f.notifier.kinds(), domain.NotifyOrderPaid)
}

func TestConfirmPayment_InvalidSignatureCancelsAndReleases(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})

	resp, err := f.service.SubmitOrder(context.Background(), submitReq("", domain.PaymentMethodOnline))
	require.NoError(t, err)
	intent, err := f.service.CreatePaymentIntent(context.Background(), resp.OrderID)
	require.NoError(t, err)

	verify, err := f.service.ConfirmPayment(context.Background(), domainport.Confirmation{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay-1",
		Signature:        "forged",
	})

	rej, ok := domain.AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, domain.RejectPaymentVerification, rej.Code)
	require.NotNil(t, verify)
	assert.Equal(t, domain.StatusCancelled, verify.Status)
	assert.Equal(t, domain.PaymentFailed, verify.PaymentStatus)
	assert.Equal(t, 10, f.inventory.stockOf("SKU-1"), "reserved stock returns to prior quantity")
	assert.Zero(t, f.coupons.redeemCalls)
}

func TestConfirmPayment_SecondArrivalIsNoOp(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})
	f.coupons.quote = &domainport.CouponQuote{Code: "SAVE10", Discount: 50}

	resp, err := f.service.SubmitOrder(context.Background(), submitReq("SAVE10", domain.PaymentMethodOnline))
	require.NoError(t, err)
	intent, err := f.service.CreatePaymentIntent(context.Background(), resp.OrderID)
	require.NoError(t, err)

	conf := domainport.Confirmation{GatewayOrderID: intent.GatewayOrderID, GatewayPaymentID: "pay-1", Signature: "valid"}

	first, err := f.service.ConfirmPayment(context.Background(), conf)
	require.NoError(t, err)
	second, err := f.service.ConfirmPayment(context.Background(), conf)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, first.Result, second.Result)
	assert.Equal(t, 1, f.coupons.redeemCalls, "re-verification must not double-increment coupon usage")
}

func TestConfirmPayment_AfterCancellationTriggersRefundFlow(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})

	resp, err := f.service.SubmitOrder(context.Background(), submitReq("", domain.PaymentMethodOnline))
	require.NoError(t, err)
	intent, err := f.service.CreatePaymentIntent(context.Background(), resp.OrderID)
	require.NoError(t, err)
	require.NoError(t, f.service.CancelOrder(context.Background(), resp.OrderID))

	verify, err := f.service.ConfirmPayment(context.Background(), domainport.Confirmation{
		GatewayOrderID:   intent.GatewayOrderID,
		GatewayPaymentID: "pay-1",
		Signature:        "valid",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, verify.Status, "late confirmation must not resurrect the order")
	assert.Contains(t, f.notifier.kinds(), domain.NotifyRefundRequired)
}

func TestCancelOrder_ReleasesStockAndRedeemedCoupon(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})
	f.coupons.quote = &domainport.CouponQuote{Code: "SAVE10", Discount: 50}

	resp, err := f.service.SubmitOrder(context.Background(), submitReq("SAVE10", domain.PaymentMethodOnline))
	require.NoError(t, err)
	intent, err := f.service.CreatePaymentIntent(context.Background(), resp.OrderID)
	require.NoError(t, err)
	_, err = f.service.ConfirmPayment(context.Background(), domainport.Confirmation{
		GatewayOrderID: intent.GatewayOrderID, GatewayPaymentID: "pay-1", Signature: "valid",
	})
	require.NoError(t, err)

	require.NoError(t, f.service.CancelOrder(context.Background(), resp.OrderID))

	assert.Equal(t, 10, f.inventory.stockOf("SKU-1"))
	assert.Equal(t, 1, f.coupons.releaseCalls, "counted usage rolls back on cancellation")
}

func TestHandlePaymentTimeout_CancelsPendingOrder(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})

	resp, err := f.service.SubmitOrder(context.Background(), submitReq("", domain.PaymentMethodOnline))
	require.NoError(t, err)

	err = f.service.HandlePaymentTimeout(context.Background(), &domain.PaymentTimeoutCheckEvent{
		OrderID:  resp.OrderID,
		Deadline: time.Now(),
	})
	require.NoError(t, err)

	stored, err := f.orders.FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, stored.Status)
	assert.Equal(t, 10, f.inventory.stockOf("SKU-1"))
}

func TestHandlePaymentTimeout_PaidOrderIsNoOp(t *testing.T) {
	f := newFixture(map[string]int{"SKU-1": 10})

	resp, err := f.service.SubmitOrder(context.Background(), submitReq("", domain.PaymentMethodOnline))
	require.NoError(t, err)
	intent, err := f.service.CreatePaymentIntent(context.Background(), resp.OrderID)
	require.NoError(t, err)
	_, err = f.service.ConfirmPayment(context.Background(), domainport.Confirmation{
		GatewayOrderID: intent.GatewayOrderID, GatewayPaymentID: "pay-1", Signature: "valid",
	})
	require.NoError(t, err)

	err = f.service.HandlePaymentTimeout(context.Background(), &domain.PaymentTimeoutCheckEvent{OrderID: resp.OrderID})
	require.NoError(t, err)

	stored, err := f.orders.FindByID(context.Background(), resp.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, stored.Status, "paid order survives the timeout check")
}
