// internal/service/inventory/infrastructure/gorm_model.go
package infrastructure

import "time"

// InventoryModel 是库存台账表的 GORM 映射。
type InventoryModel struct {
	ID                int64  `gorm:"primaryKey;autoIncrement"`
	SKU               string `gorm:"column:sku;type:varchar(64);uniqueIndex;not null"`
	ProductID         string `gorm:"type:varchar(64);index;not null"`
	StockQuantity     int    `gorm:"not null;default:0"`
	LowStockThreshold int    `gorm:"not null;default:5"`
	FlashSale         bool   `gorm:"not null;default:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (InventoryModel) TableName() string {
	return "inventory"
}

// StockMovementModel 记录每一次预占/释放流水。
// (order_id, sku, reason) 唯一索引是释放幂等性的落点。
type StockMovementModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	OrderID   string `gorm:"type:varchar(64);uniqueIndex:uk_order_sku_reason;not null"`
	SKU       string `gorm:"column:sku;type:varchar(64);uniqueIndex:uk_order_sku_reason;not null"`
	Reason    string `gorm:"type:varchar(16);uniqueIndex:uk_order_sku_reason;not null"`
	Quantity  int    `gorm:"not null"`
	CreatedAt time.Time
}

func (StockMovementModel) TableName() string {
	return "stock_movements"
}
