// internal/service/promotion/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Reason 的取值与结算流水线的错误码字典保持一致，直接透传到 API 响应。
type Reason string

const (
	ReasonNotFound     Reason = "COUPON_NOT_FOUND"
	ReasonExpired      Reason = "COUPON_EXPIRED"
	ReasonLimitReached Reason = "COUPON_LIMIT_REACHED"
	ReasonOutOfRange   Reason = "ORDER_VALUE_OUT_OF_RANGE"
	ReasonNotStackable Reason = "COUPON_NOT_STACKABLE"
	ReasonNotEligible  Reason = "COUPON_NOT_ELIGIBLE"
)

// ValidationError 是校验失败的结构化结果，首个失败即短路返回。
type ValidationError struct {
	Reason Reason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("coupon validation failed: %s", e.Reason)
}

// ErrCouponNotFound 优惠券不存在（按 code 大小写不敏感查找）。
var ErrCouponNotFound = errors.New("coupon not found")

// ErrLimitReached 原子条件递增时发现全局次数已耗尽。
var ErrLimitReached = errors.New("coupon usage limit reached")
