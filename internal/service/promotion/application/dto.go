// internal/service/promotion/application/dto.go
package application

import "bazaar/internal/service/promotion/domain"

// ValidateRequest 携带一次优惠券校验所需的全部输入。
type ValidateRequest struct {
	Code               string
	CustomerID         string
	Facts              domain.CartFacts
	OtherCouponApplied bool
}

// ValidateResponse 是校验通过后的折扣报价。
type ValidateResponse struct {
	Code         string
	CouponID     int64
	Discount     int64
	FreeShipping bool
}
