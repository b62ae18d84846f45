// internal/service/checkout/application/saga/reprice.go
package saga

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// RepriceHandler 负责服务端重新定价步骤。
// 客户端声称的价格只用于篡改检测，快照里的金额全部来自权威目录。
type RepriceHandler struct {
	NextHandler
}

func (h *RepriceHandler) Handle(checkoutCtx *CheckoutContext) error {
	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.Reprice")
	defer span.End()

	snapshot, err := checkoutCtx.Pricing.Reprice(ctx, checkoutCtx.Lines)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repricing failed")
		return err
	}

	span.SetAttributes(
		attribute.Int("cart.lines", len(snapshot.Items)),
		attribute.Int64("cart.subtotal", snapshot.Subtotal),
	)

	checkoutCtx.Cart = snapshot
	return h.executeNext(checkoutCtx)
}
