// internal/service/checkout/port/locker.go
package port

// Locker 对单个资源串行化跨进程的互斥操作。
// sweeper 在取消超时订单前按订单号加锁，与其它副本上的确认流程互斥。
type Locker interface {
	WithLock(resourceID string, fn func() error) error
}

// NopLocker 直接执行回调，供单进程部署与测试使用。
type NopLocker struct{}

func (NopLocker) WithLock(_ string, fn func() error) error { return fn() }
