// internal/service/inventory/domain/ledger.go
package domain

import "errors"

// StockStatus 是由数量与阈值推导出来的展示状态，不单独落库。
type StockStatus string

const (
	StatusInStock    StockStatus = "IN_STOCK"
	StatusLowStock   StockStatus = "LOW_STOCK"
	StatusOutOfStock StockStatus = "OUT_OF_STOCK"
)

// InventoryRecord 是单个 SKU 的库存台账行。
type InventoryRecord struct {
	SKU               string
	ProductID         string
	StockQuantity     int
	LowStockThreshold int
	// FlashSale 标记走 Redis 预扣路径的热点 SKU
	FlashSale bool
}

// Status 由当前数量推导库存状态。
func (r *InventoryRecord) Status() StockStatus {
	switch {
	case r.StockQuantity <= 0:
		return StatusOutOfStock
	case r.StockQuantity <= r.LowStockThreshold:
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// 库存流水的业务原因，(order_id, sku, reason) 唯一。
const (
	ReasonReserve = "RESERVE"
	ReasonRelease = "RELEASE"
)

// ErrSKUNotFound 请求的 SKU 不在台账中。
var ErrSKUNotFound = errors.New("sku not found in inventory ledger")
