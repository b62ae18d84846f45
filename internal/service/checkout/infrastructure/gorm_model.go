// internal/service/checkout/infrastructure/gorm_model.go
package infrastructure

import "time"

// OrderModel 是订单表的 GORM 映射。金额字段为最小货币单位。
type OrderModel struct {
	ID          string `gorm:"type:varchar(64);primaryKey"`
	OrderNumber string `gorm:"type:varchar(32);uniqueIndex;not null"`
	CustomerID  string `gorm:"type:varchar(64);index;not null"`
	Currency    string `gorm:"type:varchar(8);not null"`

	Subtotal     int64 `gorm:"not null"`
	Discount     int64 `gorm:"not null;default:0"`
	ShippingCost int64 `gorm:"not null;default:0"`
	Tax          int64 `gorm:"not null;default:0"`
	Total        int64 `gorm:"not null"`

	Status        string `gorm:"type:varchar(16);index;not null"`
	PaymentStatus string `gorm:"type:varchar(16);not null"`
	PaymentMethod string `gorm:"type:varchar(16);not null"`

	CouponCode     string `gorm:"type:varchar(64)"`
	CouponRedeemed bool   `gorm:"not null;default:false"`

	// 收货地址快照
	ShipName       string `gorm:"type:varchar(128)"`
	ShipLine1      string `gorm:"type:varchar(255)"`
	ShipLine2      string `gorm:"type:varchar(255)"`
	ShipCity       string `gorm:"type:varchar(64)"`
	ShipState      string `gorm:"type:varchar(64)"`
	ShipPostalCode string `gorm:"type:varchar(16)"`
	ShipCountry    string `gorm:"type:varchar(64)"`
	ShipPhone      string `gorm:"type:varchar(32)"`

	Items []OrderItemModel `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel 是订单行的反规范化快照，后续改价不回溯影响历史订单。
type OrderItemModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	OrderID   string `gorm:"type:varchar(64);index;not null"`
	ProductID string `gorm:"type:varchar(64);not null"`
	VariantID string `gorm:"type:varchar(64)"`
	Name      string `gorm:"type:varchar(255);not null"`
	SKU       string `gorm:"column:sku;type:varchar(64);not null"`
	UnitPrice int64  `gorm:"not null"`
	Quantity  int    `gorm:"not null"`
	LineTotal int64  `gorm:"not null"`
	OnSale    bool   `gorm:"not null;default:false"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// PaymentAttemptModel 是支付流水表的映射。
// verified 列是 FinalizeOnce 条件更新的依据。
type PaymentAttemptModel struct {
	ID               string `gorm:"type:varchar(64);primaryKey"`
	OrderID          string `gorm:"type:varchar(64);index;not null"`
	GatewayOrderID   string `gorm:"type:varchar(128);uniqueIndex;not null"`
	GatewayPaymentID string `gorm:"type:varchar(128)"`
	Amount           int64  `gorm:"not null"`
	Currency         string `gorm:"type:varchar(8);not null"`
	Result           string `gorm:"type:varchar(16);not null"`
	Verified         bool   `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (PaymentAttemptModel) TableName() string {
	return "payment_attempts"
}

// ProductModel 是商品目录的读模型，定价引擎从这里取权威价。
type ProductModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	ProductID string `gorm:"type:varchar(64);uniqueIndex:uk_product_variant;not null"`
	VariantID string `gorm:"type:varchar(64);uniqueIndex:uk_product_variant"`
	Name      string `gorm:"type:varchar(255);not null"`
	SKU       string `gorm:"column:sku;type:varchar(64);uniqueIndex;not null"`
	UnitPrice int64  `gorm:"not null"`
	OnSale    bool   `gorm:"not null;default:false"`
	FlashSale bool   `gorm:"not null;default:false"`
	Active    bool   `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProductModel) TableName() string {
	return "products"
}
