// internal/service/checkout/port/scheduler.go
package port

import (
	"context"

	"bazaar/internal/service/checkout/domain"
)

// DelayScheduler 调度支付超时检查任务。
// 到期后 sweeper 会回调 HandlePaymentTimeout，释放被遗弃结算占用的库存。
type DelayScheduler interface {
	SchedulePaymentTimeout(ctx context.Context, event *domain.PaymentTimeoutCheckEvent) error
	Close() error
}
