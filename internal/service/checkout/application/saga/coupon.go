// internal/service/checkout/application/saga/coupon.go
package saga

import (
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"bazaar/internal/service/checkout/domain"
	"bazaar/internal/service/checkout/domain/port"
)

// CouponHandler 负责优惠券校验步骤。没有提交券码时直接透传。
// 校验是只读的，使用计数要等订单到达 PAID 才会计入。
type CouponHandler struct {
	NextHandler
}

func (h *CouponHandler) Handle(checkoutCtx *CheckoutContext) error {
	if checkoutCtx.CouponCode == "" {
		return h.executeNext(checkoutCtx)
	}

	ctx, span := checkoutCtx.Tracer.Start(checkoutCtx.Ctx, "saga.CouponValidate")
	defer span.End()
	span.SetAttributes(attribute.String("coupon.code", checkoutCtx.CouponCode))

	cart := checkoutCtx.Cart
	lines := make([]port.CouponCartLine, 0, len(cart.Items))
	for _, item := range cart.Items {
		lines = append(lines, port.CouponCartLine{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			OnSale:    item.OnSale,
		})
	}

	quote, err := checkoutCtx.Coupons.Validate(ctx, port.CouponValidateRequest{
		Code:         checkoutCtx.CouponCode,
		CustomerID:   checkoutCtx.CustomerID,
		Subtotal:     cart.Subtotal,
		SaleSubtotal: cart.SaleSubtotal,
		ShippingCost: checkoutCtx.ShippingFlat,
		Lines:        lines,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "coupon rejected")

		var rejected *port.CouponRejectedError
		if errors.As(err, &rejected) {
			return &domain.Rejection{Code: domain.RejectionCode(rejected.Reason), Message: rejected.Error()}
		}
		return err
	}

	span.SetAttributes(
		attribute.Int64("coupon.discount", quote.Discount),
		attribute.Bool("coupon.free_shipping", quote.FreeShipping),
	)

	checkoutCtx.Discount = quote.Discount
	checkoutCtx.FreeShipping = quote.FreeShipping
	return h.executeNext(checkoutCtx)
}
