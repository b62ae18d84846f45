// internal/service/promotion/infrastructure/gorm_model.go
package infrastructure

import "time"

// CouponModel 是优惠券表的 GORM 映射。
// value 用 DECIMAL 存储，百分比与金额共用一列。
type CouponModel struct {
	ID   int64  `gorm:"primaryKey;autoIncrement"`
	Code string `gorm:"type:varchar(64);uniqueIndex;not null"`
	Type string `gorm:"type:varchar(32);not null"`

	Value string `gorm:"type:decimal(12,4);not null"`

	MinOrderValue *int64 `gorm:"default:null"`
	MaxOrderValue *int64 `gorm:"default:null"`
	MaxDiscount   *int64 `gorm:"default:null"`

	UsageLimitTotal   *int `gorm:"default:null"`
	UsageLimitPerUser *int `gorm:"default:null"`
	UsedCount         int  `gorm:"not null;default:0"`

	IndividualUseOnly bool `gorm:"not null;default:false"`
	ExcludeSaleItems  bool `gorm:"not null;default:false"`
	Active            bool `gorm:"not null;default:true"`

	StartsAt  *time.Time `gorm:"default:null"`
	ExpiresAt *time.Time `gorm:"default:null"`

	// 逗号分隔的商品 ID 列表，仅 FIXED_PRODUCT 型使用
	ProductIDs string `gorm:"type:text"`

	EligibilityRule string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CouponModel) TableName() string {
	return "coupons"
}

// CouponRedemptionModel 记录每一次已计数的使用。
// order_id 唯一索引是 RedeemOnce 幂等性的落点。
type CouponRedemptionModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	CouponID   int64  `gorm:"index;not null"`
	Code       string `gorm:"type:varchar(64);not null"`
	CustomerID string `gorm:"type:varchar(64);index;not null"`
	OrderID    string `gorm:"type:varchar(64);uniqueIndex;not null"`
	CreatedAt  time.Time
}

func (CouponRedemptionModel) TableName() string {
	return "coupon_redemptions"
}
