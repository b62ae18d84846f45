// internal/service/checkout/application/saga/inventory.go
package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/checkout/domain/port"
)

// InventoryHandler 负责库存预占步骤。
// 预占是 all-or-nothing 的，失败时没有任何行被扣减，无需部分回滚。
type InventoryHandler struct {
	NextHandler
	// OrderID 在进入责任链前生成，预占与后续落库使用同一个 ID
	OrderID string
}

func (h *InventoryHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.InventoryReserve")
	defer span.End()

	lines := make([]port.ReserveLine, 0, len(checkoutCtx.Cart.Items))
	for _, item := range checkoutCtx.Cart.Items {
		lines = append(lines, port.ReserveLine{SKU: item.SKU, Quantity: item.Quantity})
	}
	span.SetAttributes(attribute.Int("reserve.lines", len(lines)))

	if err := checkoutCtx.Inventory.Reserve(ctx, h.OrderID, lines); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inventory reservation failed")
		return err
	}

	// 预占成功后注册补偿：后续任何步骤失败都要释放这批库存
	checkoutCtx.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := checkoutCtx.Tracer.Start(compCtx, "saga.compensation.ReleaseStock")
		defer compSpan.End()

		// 释放按订单幂等，补偿失败记录严重错误等待人工介入
		if err := checkoutCtx.Inventory.Release(compCtx, h.OrderID, lines); err != nil {
			compSpan.RecordError(err)
			logger.Ctx(compCtx).Error().Err(err).Str("order", h.OrderID).Msg("stock release compensation failed")
		}
	})

	span.AddEvent("all lines reserved")
	return h.executeNext(checkoutCtx)
}
