// internal/service/checkout/application/dto.go
package application

import "bazaar/internal/service/checkout/domain"

// SubmitOrderRequest 是一次结算提交的应用层输入。
type SubmitOrderRequest struct {
	CustomerID    string
	Lines         []domain.SubmittedLine
	CouponCode    string
	PaymentMethod domain.PaymentMethod
	Address       domain.Address
}

// SubmitOrderResponse 回显服务端权威计算的金额明细。
type SubmitOrderResponse struct {
	OrderID       string
	OrderNumber   string
	Status        domain.Status
	PaymentStatus domain.PaymentStatus
	Currency      string
	Subtotal      int64
	Discount      int64
	ShippingCost  int64
	Tax           int64
	Total         int64
}

// PaymentIntentResponse 返回网关侧支付引用，客户端凭它完成带外支付。
type PaymentIntentResponse struct {
	OrderID        string
	GatewayOrderID string
	Amount         int64
	Currency       string
}

// VerifyResponse 是一次支付确认处理后的订单终态。
type VerifyResponse struct {
	OrderID       string
	Status        domain.Status
	PaymentStatus domain.PaymentStatus
	Result        domain.AttemptResult
}
