// internal/service/checkout/domain/port/coupon.go
package port

import (
	"context"
	"fmt"
)

// CouponCartLine 是传给优惠券校验的购物车行投影。
type CouponCartLine struct {
	ProductID string
	SKU       string
	UnitPrice int64
	Quantity  int
	OnSale    bool
}

// CouponValidateRequest 携带一次优惠券校验所需的全部事实。
type CouponValidateRequest struct {
	Code         string
	CustomerID   string
	Subtotal     int64
	SaleSubtotal int64
	ShippingCost int64
	Lines        []CouponCartLine
	// OtherCouponApplied 在购物车已有其它优惠时为 true，用于 individual-use 检查
	OtherCouponApplied bool
}

// CouponQuote 是校验通过后的折扣结果。
type CouponQuote struct {
	Code         string
	Discount     int64 // 商品侧折扣，最小货币单位
	FreeShipping bool  // FREE_SHIPPING 型优惠券置位，由编排器单独清零运费项
}

// CouponRejectedError 携带优惠券被拒的机器可读原因。
// Reason 的取值与结算错误码字典一致（COUPON_NOT_FOUND 等）。
type CouponRejectedError struct {
	Code   string
	Reason string
}

func (e *CouponRejectedError) Error() string {
	return fmt.Sprintf("coupon %s rejected: %s", e.Code, e.Reason)
}

// CouponService 是促销域的出站端口。
type CouponService interface {
	// Validate 在下单时刻重新校验优惠券并计算折扣，不产生任何副作用。
	Validate(ctx context.Context, req CouponValidateRequest) (*CouponQuote, error)

	// RedeemForOrder 在订单到达 PAID 时计入一次使用（原子条件递增，按订单幂等）。
	RedeemForOrder(ctx context.Context, code, customerID, orderID string) error

	// ReleaseForOrder 在已计数的订单取消时回退使用次数，按订单幂等。
	ReleaseForOrder(ctx context.Context, orderID string) error
}
