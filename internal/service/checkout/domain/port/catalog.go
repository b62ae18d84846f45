// internal/service/checkout/domain/port/catalog.go
package port

import "context"

// ItemRef 定位一个商品或其变体。
type ItemRef struct {
	ProductID string
	VariantID string
}

// Key 返回用于查表的稳定键。
func (r ItemRef) Key() string {
	if r.VariantID == "" {
		return r.ProductID
	}
	return r.ProductID + "/" + r.VariantID
}

// CatalogItem 是商品目录的权威读侧投影。
type CatalogItem struct {
	ProductID string
	VariantID string
	Name      string
	SKU       string
	UnitPrice int64 // 当前权威售价，最小货币单位
	OnSale    bool  // 是否处于促销价
	FlashSale bool  // 是否走秒杀快路径库存
	Active    bool
}

// CatalogReader 是商品读 API 的出站端口，由目录存储的适配器实现。
type CatalogReader interface {
	// ItemsByRefs 批量读取商品投影，返回 map 以 ItemRef.Key() 为键。
	// 不存在的商品不会出现在结果里，由调用方判定缺失。
	ItemsByRefs(ctx context.Context, refs []ItemRef) (map[string]CatalogItem, error)
}
