// internal/service/checkout/port/notification.go
package port

import (
	"context"

	"bazaar/internal/service/checkout/domain"
)

// NotificationProducer 是邮件通知汇的出站端口。
// 实现必须是非阻塞心态的：错误只记日志，不向上冒泡中断结算。
type NotificationProducer interface {
	Notify(ctx context.Context, event *domain.NotificationEvent) error
	Close() error
}
