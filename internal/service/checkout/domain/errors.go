// internal/service/checkout/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// RejectionCode 是结算流水线对外暴露的机器可读错误码。
type RejectionCode string

const (
	RejectPriceMismatch        RejectionCode = "PRICE_MISMATCH"
	RejectCouponNotFound       RejectionCode = "COUPON_NOT_FOUND"
	RejectCouponExpired        RejectionCode = "COUPON_EXPIRED"
	RejectCouponLimitReached   RejectionCode = "COUPON_LIMIT_REACHED"
	RejectOrderValueOutOfRange RejectionCode = "ORDER_VALUE_OUT_OF_RANGE"
	RejectCouponNotStackable   RejectionCode = "COUPON_NOT_STACKABLE"
	RejectCouponNotEligible    RejectionCode = "COUPON_NOT_ELIGIBLE"
	RejectInsufficientStock    RejectionCode = "INSUFFICIENT_STOCK"
	RejectPaymentVerification  RejectionCode = "PAYMENT_VERIFICATION_FAILED"
	RejectNegativeTotal        RejectionCode = "NEGATIVE_TOTAL"
)

// Rejection 是校验类失败的结构化结果。
// 它在任何持久化副作用发生之前返回给调用方，结算在此之前是 all-or-nothing 的。
type Rejection struct {
	Code    RejectionCode
	SKU     string // 仅 INSUFFICIENT_STOCK / PRICE_MISMATCH 时有值
	Message string
}

func (r *Rejection) Error() string {
	if r.SKU != "" {
		return fmt.Sprintf("checkout rejected: %s (sku=%s): %s", r.Code, r.SKU, r.Message)
	}
	return fmt.Sprintf("checkout rejected: %s: %s", r.Code, r.Message)
}

// AsRejection 从错误链中提取 Rejection。
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// ErrIllegalTransition 表示一次违反状态机的流转尝试。
// 这是编程或集成缺陷，不是用户可见的业务错误，应记为 fatal 级日志排查。
var ErrIllegalTransition = errors.New("illegal order state transition")

// ErrOrderNotFound 订单不存在。
var ErrOrderNotFound = errors.New("order not found")

// ErrAttemptNotFound 支付流水不存在。
var ErrAttemptNotFound = errors.New("payment attempt not found")
