// internal/service/checkout/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口。
// 位于领域层，由基础设施层实现。
type OrderRepository interface {
	// Create 持久化一个新订单。
	Create(ctx context.Context, order *Order) error

	// FindByID 根据 ID 查找订单，不存在时返回 ErrOrderNotFound。
	FindByID(ctx context.Context, id string) (*Order, error)

	// Update 保存订单的状态变更（状态、支付状态、优惠券计数标记）。
	Update(ctx context.Context, order *Order) error
}

// PaymentAttemptRepository 定义了支付流水的持久化接口。
type PaymentAttemptRepository interface {
	// Create 持久化一条新流水。
	Create(ctx context.Context, attempt *PaymentAttempt) error

	// FindByGatewayOrderID 按网关订单号查找，不存在时返回 ErrAttemptNotFound。
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*PaymentAttempt, error)

	// FindOpenByOrderID 查找订单下尚未终局化的流水，不存在时返回 ErrAttemptNotFound。
	FindOpenByOrderID(ctx context.Context, orderID string) (*PaymentAttempt, error)

	// FinalizeOnce 把一条流水原子地置为已验证并写入结果。
	// 只有 verified 仍为 false 的行会被更新；返回本次调用是否真正生效。
	// 并发到达的第二次验证会拿到 applied=false，然后读取既有结果。
	FinalizeOnce(ctx context.Context, gatewayOrderID string, result AttemptResult, gatewayPaymentID string) (applied bool, err error)
}
