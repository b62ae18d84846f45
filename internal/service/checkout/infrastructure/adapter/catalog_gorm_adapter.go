// internal/service/checkout/infrastructure/adapter/catalog_gorm_adapter.go
package adapter

import (
	"context"

	"gorm.io/gorm"

	"bazaar/internal/service/checkout/domain/port"
	"bazaar/internal/service/checkout/infrastructure"
)

// CatalogGormAdapter 从商品目录表读取权威价格，实现 port.CatalogReader。
type CatalogGormAdapter struct {
	db *gorm.DB
}

func NewCatalogGormAdapter(db *gorm.DB) *CatalogGormAdapter {
	return &CatalogGormAdapter{db: db}
}

// ItemsByRefs 批量读取商品投影。缺失的商品不出现在结果里，由定价引擎判定下架。
func (a *CatalogGormAdapter) ItemsByRefs(ctx context.Context, refs []port.ItemRef) (map[string]port.CatalogItem, error) {
	productIDs := make([]string, 0, len(refs))
	for _, ref := range refs {
		productIDs = append(productIDs, ref.ProductID)
	}

	var models []infrastructure.ProductModel
	err := a.db.WithContext(ctx).
		Where("product_id IN ?", productIDs).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	items := make(map[string]port.CatalogItem, len(models))
	for _, m := range models {
		ref := port.ItemRef{ProductID: m.ProductID, VariantID: m.VariantID}
		items[ref.Key()] = port.CatalogItem{
			ProductID: m.ProductID,
			VariantID: m.VariantID,
			Name:      m.Name,
			SKU:       m.SKU,
			UnitPrice: m.UnitPrice,
			OnSale:    m.OnSale,
			FlashSale: m.FlashSale,
			Active:    m.Active,
		}
	}
	return items, nil
}
