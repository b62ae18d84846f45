// internal/service/checkout/domain/event.go
package domain

import "time"

// NotificationKind 区分通知事件的类型，notification-service 按类型渲染邮件。
type NotificationKind string

const (
	NotifyOrderCreated   NotificationKind = "ORDER_CREATED"
	NotifyOrderPaid      NotificationKind = "ORDER_PAID"
	NotifyPaymentFailed  NotificationKind = "PAYMENT_FAILED"
	NotifyOrderCancelled NotificationKind = "ORDER_CANCELLED"
	NotifyRefundRequired NotificationKind = "REFUND_REQUIRED" // 取消后支付确认才到达，需要人工退款
)

// NotificationEvent 是发往通知队列的领域事件。
// 通知是 fire-and-forget 的，发送失败不阻塞结算主流程。
type NotificationEvent struct {
	Kind        NotificationKind `json:"kind"`
	OrderID     string           `json:"orderId"`
	OrderNumber string           `json:"orderNumber"`
	CustomerID  string           `json:"customerId"`
	Total       int64            `json:"total"`
	Currency    string           `json:"currency"`
	Status      Status           `json:"status"`
	At          time.Time        `json:"at"`
}

// PaymentTimeoutCheckEvent 经由延迟队列投递，到期后由 sweeper 检查订单是否仍未支付。
type PaymentTimeoutCheckEvent struct {
	TraceID    string    `json:"traceId"`
	OrderID    string    `json:"orderId"`
	CustomerID string    `json:"customerId"`
	CreatedAt  time.Time `json:"createdAt"`
	Deadline   time.Time `json:"deadline"`
}
