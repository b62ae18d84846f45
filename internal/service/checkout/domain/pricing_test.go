package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/service/checkout/domain/port"
)

// fakeCatalog implements port.CatalogReader over a fixed item set.
type fakeCatalog struct {
	items map[string]port.CatalogItem
}

func (f *fakeCatalog) ItemsByRefs(_ context.Context, _ []port.ItemRef) (map[string]port.CatalogItem, error) {
	return f.items, nil
}

func catalogWith(items ...port.CatalogItem) *fakeCatalog {
	m := make(map[string]port.CatalogItem)
	for _, it := range items {
		m[port.ItemRef{ProductID: it.ProductID, VariantID: it.VariantID}.Key()] = it
	}
	return &fakeCatalog{items: m}
}

func TestReprice_UsesAuthoritativePrices(t *testing.T) {
	engine := NewPricingEngine(catalogWith(
		port.CatalogItem{ProductID: "p-1", SKU: "SKU-1", Name: "Widget", UnitPrice: 500, Active: true},
		port.CatalogItem{ProductID: "p-2", SKU: "SKU-2", Name: "Gadget", UnitPrice: 300, OnSale: true, Active: true},
	), "INR")

	snapshot, err := engine.Reprice(context.Background(), []SubmittedLine{
		{ProductID: "p-1", UnitPrice: 500, Quantity: 2},
		{ProductID: "p-2", UnitPrice: 300, Quantity: 1},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1300), snapshot.Subtotal)
	assert.Equal(t, int64(300), snapshot.SaleSubtotal)
	assert.Equal(t, "INR", snapshot.Currency)
	assert.Len(t, snapshot.Items, 2)
	assert.Equal(t, int64(1000), snapshot.Items[0].LineTotal)
}

func TestReprice_RejectsTamperedUnitPrice(t *testing.T) {
	engine := NewPricingEngine(catalogWith(
		port.CatalogItem{ProductID: "p-1", SKU: "SKU-1", UnitPrice: 500, Active: true},
	), "INR")

	_, err := engine.Reprice(context.Background(), []SubmittedLine{
		{ProductID: "p-1", UnitPrice: 1, Quantity: 1},
	})

	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectPriceMismatch, rej.Code)
	assert.Equal(t, "SKU-1", rej.SKU)
}

func TestReprice_RejectsTamperedLineTotal(t *testing.T) {
	engine := NewPricingEngine(catalogWith(
		port.CatalogItem{ProductID: "p-1", SKU: "SKU-1", UnitPrice: 500, Active: true},
	), "INR")

	_, err := engine.Reprice(context.Background(), []SubmittedLine{
		{ProductID: "p-1", UnitPrice: 500, Quantity: 2, LineTotal: 500},
	})

	rej, ok := AsRejection(err)
	require.True(t, ok)
	assert.Equal(t, RejectPriceMismatch, rej.Code)
}

func TestReprice_RejectsInactiveOrMissingProduct(t *testing.T) {
	engine := NewPricingEngine(catalogWith(
		port.CatalogItem{ProductID: "p-1", SKU: "SKU-1", UnitPrice: 500, Active: false},
	), "INR")

	for _, productID := range []string{"p-1", "p-unknown"} {
		_, err := engine.Reprice(context.Background(), []SubmittedLine{
			{ProductID: productID, UnitPrice: 500, Quantity: 1},
		})
		rej, ok := AsRejection(err)
		require.True(t, ok, productID)
		assert.Equal(t, RejectPriceMismatch, rej.Code)
	}
}

func TestReprice_RejectsEmptyCartAndBadQuantity(t *testing.T) {
	engine := NewPricingEngine(catalogWith(), "INR")

	_, err := engine.Reprice(context.Background(), nil)
	_, ok := AsRejection(err)
	assert.True(t, ok)

	_, err = engine.Reprice(context.Background(), []SubmittedLine{{ProductID: "p-1", Quantity: 0}})
	_, ok = AsRejection(err)
	assert.True(t, ok)
}

func TestComputeTax(t *testing.T) {
	assert.Equal(t, int64(180), ComputeTax(1000, 18))
	// 18% of 999 = 179.82 -> 180
	assert.Equal(t, int64(180), ComputeTax(999, 18))
	assert.Equal(t, int64(0), ComputeTax(0, 18))
	assert.Equal(t, int64(0), ComputeTax(-50, 18))
	assert.Equal(t, int64(0), ComputeTax(1000, 0))
}
