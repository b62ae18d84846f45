// internal/service/checkout/domain/payment.go
package domain

import "time"

// AttemptResult 是一次支付流水的终局结果。
type AttemptResult string

const (
	AttemptPending   AttemptResult = "PENDING"
	AttemptSucceeded AttemptResult = "SUCCEEDED"
	AttemptFailed    AttemptResult = "FAILED"
)

// PaymentAttempt 在请求支付意向时创建，验证时恰好终局化一次。
// Verified 置位后的再次验证是幂等 no-op：返回历史结果，不重放任何副作用。
// 这就是防止客户端重试回调或重复 webhook 二次入账的幂等边界。
type PaymentAttempt struct {
	ID               string
	OrderID          string
	GatewayOrderID   string
	GatewayPaymentID string
	Amount           int64
	Currency         string
	Result           AttemptResult
	Verified         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
