// internal/service/checkout/domain/cart.go
package domain

// SubmittedLine 是客户端提交的一行购物车。
// 其中的单价与行小计是客户端声称的值，只用于篡改检测，定价一律以服务端为准。
type SubmittedLine struct {
	ProductID string
	VariantID string
	UnitPrice int64
	Quantity  int
	LineTotal int64
}

// CartSnapshot 是服务端重新定价后的不可变购物车快照。
// 它只在一次结算请求的生命周期内存在，不作为持久化的购物车状态。
type CartSnapshot struct {
	Items    []OrderItem
	Currency string

	// Subtotal 为全部行小计之和；SaleSubtotal 为其中促销价商品的部分。
	// 优惠券 excludeSaleItems 时，折扣基数为 Subtotal - SaleSubtotal。
	Subtotal     int64
	SaleSubtotal int64
}

// EligibleSubtotal 返回排除促销价商品后的折扣基数。
func (c *CartSnapshot) EligibleSubtotal() int64 {
	return c.Subtotal - c.SaleSubtotal
}

// TotalQuantity 返回快照内的商品总件数。
func (c *CartSnapshot) TotalQuantity() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}
