// internal/service/checkout/domain/port/inventory.go
package port

import (
	"context"
	"fmt"
)

// ReserveLine 是一次库存预占/释放的单行请求。
type ReserveLine struct {
	SKU      string
	Quantity int
}

// InsufficientStockError 标识预占失败的 SKU。
// 预占是 all-or-nothing 的，返回此错误时没有任何行被扣减。
type InsufficientStockError struct {
	SKU string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for sku %s", e.SKU)
}

// InventoryLedger 是库存台账的出站端口。
type InventoryLedger interface {
	// Reserve 原子地为一个订单预占全部行，任何一行不足则整体失败。
	Reserve(ctx context.Context, orderID string, lines []ReserveLine) error

	// Release 是补偿操作，按订单幂等：重复释放是 no-op。
	Release(ctx context.Context, orderID string, lines []ReserveLine) error
}
