// internal/service/promotion/domain/coupon.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountType 是优惠券折扣方式的封闭枚举。
type DiscountType string

const (
	DiscountPercentage   DiscountType = "PERCENTAGE"    // 按比例折扣，可带封顶
	DiscountFixedCart    DiscountType = "FIXED_CART"    // 整车立减
	DiscountFixedProduct DiscountType = "FIXED_PRODUCT" // 指定商品按件立减
	DiscountFreeShipping DiscountType = "FREE_SHIPPING" // 免运费，商品侧折扣为 0
)

// Coupon 是优惠券聚合。金额字段一律为最小货币单位；
// Value 对 PERCENTAGE 型是百分数（0~100），其余类型是金额。
// 历史订单引用过的券不允许删除，只能软停用（Active=false）。
type Coupon struct {
	ID   int64
	Code string // 唯一，大小写不敏感
	Type DiscountType

	Value decimal.Decimal

	MinOrderValue *int64
	MaxOrderValue *int64
	MaxDiscount   *int64

	UsageLimitTotal   *int
	UsageLimitPerUser *int
	UsedCount         int

	IndividualUseOnly bool
	ExcludeSaleItems  bool
	Active            bool

	StartsAt  *time.Time
	ExpiresAt *time.Time

	// ProductIDs 限定 FIXED_PRODUCT 型优惠券作用的商品
	ProductIDs []string

	// EligibilityRule 是可选的 CEL 表达式，管理员用它表达字典之外的适用条件
	EligibilityRule string
}

// CartLine 是参与折扣计算的购物车行投影。
type CartLine struct {
	ProductID string
	SKU       string
	UnitPrice int64
	Quantity  int
	OnSale    bool
}

// CartFacts 汇总一次校验所需的购物车事实。
type CartFacts struct {
	Subtotal     int64
	SaleSubtotal int64
	ShippingCost int64
	Lines        []CartLine
}

// CheckWindow 执行存在性之后的第一组检查：启用状态与有效期窗口。
func (c *Coupon) CheckWindow(now time.Time) error {
	if !c.Active {
		return &ValidationError{Reason: ReasonNotFound}
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return &ValidationError{Reason: ReasonExpired}
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return &ValidationError{Reason: ReasonExpired}
	}
	return nil
}

// CheckGlobalLimit 检查全局使用次数是否已耗尽。
func (c *Coupon) CheckGlobalLimit() error {
	if c.UsageLimitTotal != nil && c.UsedCount >= *c.UsageLimitTotal {
		return &ValidationError{Reason: ReasonLimitReached}
	}
	return nil
}

// CheckPerUserLimit 检查该客户的使用次数是否已耗尽。
func (c *Coupon) CheckPerUserLimit(usedByCustomer int) error {
	if c.UsageLimitPerUser != nil && usedByCustomer >= *c.UsageLimitPerUser {
		return &ValidationError{Reason: ReasonLimitReached}
	}
	return nil
}

// CheckOrderValue 检查小计是否落在券允许的区间内。
func (c *Coupon) CheckOrderValue(subtotal int64) error {
	if c.MinOrderValue != nil && subtotal < *c.MinOrderValue {
		return &ValidationError{Reason: ReasonOutOfRange}
	}
	if c.MaxOrderValue != nil && subtotal > *c.MaxOrderValue {
		return &ValidationError{Reason: ReasonOutOfRange}
	}
	return nil
}

// CheckStacking 检查 individual-use 约束。
func (c *Coupon) CheckStacking(otherCouponApplied bool) error {
	if c.IndividualUseOnly && otherCouponApplied {
		return &ValidationError{Reason: ReasonNotStackable}
	}
	return nil
}

// Discount 按券类型计算商品侧折扣（最小货币单位）。
// 返回值永远不会超过小计，保证订单总额不为负。
func (c *Coupon) Discount(facts CartFacts) (amount int64, freeShipping bool) {
	base := facts.Subtotal
	if c.ExcludeSaleItems {
		base = facts.Subtotal - facts.SaleSubtotal
	}
	if base < 0 {
		base = 0
	}

	switch c.Type {
	case DiscountPercentage:
		d := decimal.NewFromInt(base).
			Mul(c.Value).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart()
		if c.MaxDiscount != nil && d > *c.MaxDiscount {
			d = *c.MaxDiscount
		}
		return clamp(d, facts.Subtotal), false

	case DiscountFixedCart:
		return clamp(c.Value.IntPart(), facts.Subtotal), false

	case DiscountFixedProduct:
		qty := int64(0)
		for _, line := range facts.Lines {
			if c.ExcludeSaleItems && line.OnSale {
				continue
			}
			if c.appliesToProduct(line.ProductID) {
				qty += int64(line.Quantity)
			}
		}
		return clamp(c.Value.IntPart()*qty, facts.Subtotal), false

	case DiscountFreeShipping:
		// 商品侧折扣为 0，运费项由编排器单独清零
		return 0, true
	}
	return 0, false
}

func (c *Coupon) appliesToProduct(productID string) bool {
	if len(c.ProductIDs) == 0 {
		return false
	}
	for _, id := range c.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

func clamp(d, max int64) int64 {
	if d < 0 {
		return 0
	}
	if d > max {
		return max
	}
	return d
}
