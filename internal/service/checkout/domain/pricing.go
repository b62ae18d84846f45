// internal/service/checkout/domain/pricing.go
package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"bazaar/internal/service/checkout/domain/port"
)

// PricingEngine 以服务端目录价重新计算购物车。
// 客户端提交的单价只用于篡改检测，任何不一致都会被拒绝，绝不作为计价输入。
type PricingEngine struct {
	catalog  port.CatalogReader
	currency string
}

// NewPricingEngine 创建一个定价引擎。
func NewPricingEngine(catalog port.CatalogReader, currency string) *PricingEngine {
	return &PricingEngine{catalog: catalog, currency: currency}
}

// Reprice 重新定价一组提交行并生成不可变快照。
// 行小计各自独立落在最小货币单位上再求和，保证逐行金额可审计。
func (e *PricingEngine) Reprice(ctx context.Context, lines []SubmittedLine) (*CartSnapshot, error) {
	if len(lines) == 0 {
		return nil, &Rejection{Code: RejectPriceMismatch, Message: "empty cart"}
	}

	refs := make([]port.ItemRef, 0, len(lines))
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, &Rejection{Code: RejectPriceMismatch, SKU: l.ProductID, Message: "quantity must be positive"}
		}
		refs = append(refs, port.ItemRef{ProductID: l.ProductID, VariantID: l.VariantID})
	}

	items, err := e.catalog.ItemsByRefs(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("load catalog items: %w", err)
	}

	snapshot := &CartSnapshot{Currency: e.currency}
	for _, l := range lines {
		ref := port.ItemRef{ProductID: l.ProductID, VariantID: l.VariantID}
		item, ok := items[ref.Key()]
		if !ok || !item.Active {
			return nil, &Rejection{Code: RejectPriceMismatch, SKU: l.ProductID, Message: "product is not available"}
		}

		lineTotal := item.UnitPrice * int64(l.Quantity)

		// 篡改检测：客户端声称的价格与权威价不一致时拒绝，提示刷新购物车
		if l.UnitPrice != item.UnitPrice || (l.LineTotal != 0 && l.LineTotal != lineTotal) {
			return nil, &Rejection{
				Code:    RejectPriceMismatch,
				SKU:     item.SKU,
				Message: fmt.Sprintf("claimed price %d differs from current price %d", l.UnitPrice, item.UnitPrice),
			}
		}

		snapshot.Items = append(snapshot.Items, OrderItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Name:      item.Name,
			SKU:       item.SKU,
			UnitPrice: item.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: lineTotal,
			OnSale:    item.OnSale,
		})
		snapshot.Subtotal += lineTotal
		if item.OnSale {
			snapshot.SaleSubtotal += lineTotal
		}
	}

	return snapshot, nil
}

// ComputeTax 按百分比税率计算税额，四舍五入到最小货币单位。
func ComputeTax(taxableAmount, ratePercent int64) int64 {
	if taxableAmount <= 0 || ratePercent <= 0 {
		return 0
	}
	return decimal.NewFromInt(taxableAmount).
		Mul(decimal.NewFromInt(ratePercent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}
