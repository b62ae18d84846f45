// internal/service/promotion/domain/repository.go
package domain

import "context"

// CouponRepository 定义了优惠券聚合的持久化接口。
type CouponRepository interface {
	// FindByCode 按券码查找（大小写不敏感），不存在时返回 ErrCouponNotFound。
	FindByCode(ctx context.Context, code string) (*Coupon, error)

	// CountRedeemedByCustomer 统计客户对某张券已计数的使用次数。
	CountRedeemedByCustomer(ctx context.Context, couponID int64, customerID string) (int, error)

	// RedeemOnce 原子地计入一次使用：条件递增全局计数并写入 redemption 行。
	// 按订单幂等：同一订单重复调用返回 applied=false 且无副作用。
	// 全局次数已耗尽时返回 ErrLimitReached。
	RedeemOnce(ctx context.Context, couponID int64, code, customerID, orderID string) (applied bool, err error)

	// ReleaseByOrder 回退一次已计数的使用，按订单幂等。
	// 返回是否真正发生了回退。
	ReleaseByOrder(ctx context.Context, orderID string) (released bool, err error)
}
