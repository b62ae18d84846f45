// internal/service/checkout/infrastructure/adapter/coupon_local_adapter.go
package adapter

import (
	"context"
	"errors"

	"bazaar/internal/service/checkout/domain/port"
	promoapp "bazaar/internal/service/promotion/application"
	promodomain "bazaar/internal/service/promotion/domain"
)

// CouponLocalAdapter 把优惠域的应用服务适配成结算域的出站端口。
// 两个域部署在同一进程内，进程内调用即可；拆分部署时换成 HTTP 适配器。
type CouponLocalAdapter struct {
	promotions *promoapp.PromotionService
}

func NewCouponLocalAdapter(promotions *promoapp.PromotionService) *CouponLocalAdapter {
	return &CouponLocalAdapter{promotions: promotions}
}

func (a *CouponLocalAdapter) Validate(ctx context.Context, req port.CouponValidateRequest) (*port.CouponQuote, error) {
	lines := make([]promodomain.CartLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, promodomain.CartLine{
			ProductID: l.ProductID,
			SKU:       l.SKU,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			OnSale:    l.OnSale,
		})
	}

	resp, err := a.promotions.Validate(ctx, &promoapp.ValidateRequest{
		Code:       req.Code,
		CustomerID: req.CustomerID,
		Facts: promodomain.CartFacts{
			Subtotal:     req.Subtotal,
			SaleSubtotal: req.SaleSubtotal,
			ShippingCost: req.ShippingCost,
			Lines:        lines,
		},
		OtherCouponApplied: req.OtherCouponApplied,
	})
	if err != nil {
		var validation *promodomain.ValidationError
		if errors.As(err, &validation) {
			return nil, &port.CouponRejectedError{Code: req.Code, Reason: string(validation.Reason)}
		}
		return nil, err
	}

	return &port.CouponQuote{
		Code:         resp.Code,
		Discount:     resp.Discount,
		FreeShipping: resp.FreeShipping,
	}, nil
}

func (a *CouponLocalAdapter) RedeemForOrder(ctx context.Context, code, customerID, orderID string) error {
	return a.promotions.RedeemForOrder(ctx, code, customerID, orderID)
}

func (a *CouponLocalAdapter) ReleaseForOrder(ctx context.Context, orderID string) error {
	return a.promotions.ReleaseForOrder(ctx, orderID)
}
