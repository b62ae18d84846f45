// internal/service/checkout/application/saga/create_order.go
package saga

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/service/checkout/domain"
)

// CreateOrderHandler 负责组装订单聚合、持久化并调度支付超时检查。
type CreateOrderHandler struct {
	NextHandler
	repo        domain.OrderRepository
	orderID     string
	orderNumber string
}

func NewCreateOrderHandler(repo domain.OrderRepository, orderID, orderNumber string) *CreateOrderHandler {
	return &CreateOrderHandler{repo: repo, orderID: orderID, orderNumber: orderNumber}
}

func (h *CreateOrderHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.CreateOrder")
	defer span.End()

	cart := checkoutCtx.Cart

	// 运费与税在折扣之后计算：免运费券直接清零运费项，
	// 税基为商品小计减折扣，负数按 0 处理。
	shipping := checkoutCtx.ShippingFlat
	if checkoutCtx.FreeShipping {
		shipping = 0
	}
	tax := domain.ComputeTax(cart.Subtotal-checkoutCtx.Discount, checkoutCtx.TaxRatePercent)

	order, err := domain.NewOrder(
		h.orderID,
		h.orderNumber,
		checkoutCtx.CustomerID,
		cart.Currency,
		cart.Items,
		cart.Subtotal,
		checkoutCtx.Discount,
		shipping,
		tax,
		checkoutCtx.PaymentMethod,
		checkoutCtx.CouponCode,
		checkoutCtx.Address,
	)
	if err != nil {
		span.RecordError(err)
		return err
	}

	// COD 订单没有支付环节，创建即进入履约
	if order.PaymentMethod == domain.PaymentMethodCOD {
		if err := order.ConfirmCashOnDelivery(); err != nil {
			span.RecordError(err)
			return err
		}
	}

	if err := h.repo.Create(ctx, order); err != nil {
		span.RecordError(err)
		return fmt.Errorf("persist order: %w", err)
	}
	span.AddEvent("order persisted")
	checkoutCtx.Order = order

	// 在线支付订单调度超时检查，到期未支付由 sweeper 取消并释放库存。
	// 调度失败不阻塞主流程：订单已落库，可由巡检兜底。
	if order.PaymentMethod == domain.PaymentMethodOnline {
		deadline := time.Now().Add(checkoutCtx.PaymentDeadline)
		err := checkoutCtx.Scheduler.SchedulePaymentTimeout(ctx, &domain.PaymentTimeoutCheckEvent{
			TraceID:    trace.SpanContextFromContext(ctx).TraceID().String(),
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			CreatedAt:  order.CreatedAt,
			Deadline:   deadline,
		})
		if err != nil {
			span.RecordError(err)
		}
	}

	return h.executeNext(checkoutCtx)
}
