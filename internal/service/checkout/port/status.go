// internal/service/checkout/port/status.go
package port

import "bazaar/internal/service/checkout/domain"

// StatusPublisher 把订单状态变化推送给等待中的客户端（websocket 流）。
// 纯进程内广播，没有订阅者时是 no-op。
type StatusPublisher interface {
	Publish(orderID string, status domain.Status, paymentStatus domain.PaymentStatus)
}

// NopStatusPublisher 供测试与不需要推送的进程使用。
type NopStatusPublisher struct{}

func (NopStatusPublisher) Publish(string, domain.Status, domain.PaymentStatus) {}
