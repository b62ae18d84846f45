// internal/service/checkout/domain/port/gateway.go
package port

import "context"

// Confirmation 是客户端回传或网关 webhook 送达的支付确认载荷。
// 在签名验证通过之前，其中的一切都不可信。
type Confirmation struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
	// Failed 表示网关声称这笔支付失败/被拒（失败回执同样带签名）
	Failed bool
}

// PaymentGateway 是外部支付网关的出站端口。
type PaymentGateway interface {
	// CreateIntent 以服务端计算的精确金额开启一笔支付意向，返回网关侧订单号。
	CreateIntent(ctx context.Context, orderID string, amount int64, currency string) (string, error)

	// VerifySignature 用共享密钥重算签名并比对，任何不一致都返回 false。
	VerifySignature(conf Confirmation) bool
}
