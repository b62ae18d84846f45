// internal/service/checkout/application/saga/notification.go
package saga

import (
	"time"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/checkout/domain"
)

// NotificationHandler 负责投递订单创建通知。
// 通知是 fire-and-forget 的，失败只记日志，绝不让已落库的订单回滚。
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.NotifyOrderCreated")
	defer span.End()

	order := checkoutCtx.Order
	err := checkoutCtx.Notifier.Notify(ctx, &domain.NotificationEvent{
		Kind:        domain.NotifyOrderCreated,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Total:       order.Total,
		Currency:    order.Currency,
		Status:      order.Status,
		At:          time.Now(),
	})
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order", order.ID).Msg("order created notification failed")
	}

	return h.executeNext(checkoutCtx)
}
