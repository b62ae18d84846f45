// internal/service/promotion/domain/rules.go
package domain

// Fact 是传给规则引擎的购物车事实快照。
// 字段名与 CEL 环境中的变量名一一对应。
type Fact struct {
	Subtotal     int64
	SaleSubtotal int64
	ShippingCost int64
	ItemCount    int
	CustomerID   string
}

// RuleEngine 评估管理员配置的适用条件表达式。
// 位于领域层，由基础设施层的 CEL 适配器实现。
type RuleEngine interface {
	Evaluate(rule string, fact Fact) (bool, error)
}
