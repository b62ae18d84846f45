package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestDiscount_PercentageWithMaxDiscountCap(t *testing.T) {
	coupon := &Coupon{
		Type:        DiscountPercentage,
		Value:       decimal.NewFromInt(10),
		MaxDiscount: int64Ptr(50),
	}

	amount, freeShipping := coupon.Discount(CartFacts{Subtotal: 1000})

	assert.Equal(t, int64(50), amount, "10%% of 1000 is 100 but maxDiscount caps it at 50")
	assert.False(t, freeShipping)
}

func TestDiscount_PercentageWithoutCap(t *testing.T) {
	coupon := &Coupon{
		Type:  DiscountPercentage,
		Value: decimal.NewFromInt(10),
	}

	amount, _ := coupon.Discount(CartFacts{Subtotal: 1000})
	assert.Equal(t, int64(100), amount)
}

func TestDiscount_PercentageRoundsToMinorUnit(t *testing.T) {
	coupon := &Coupon{
		Type:  DiscountPercentage,
		Value: decimal.NewFromFloat(12.5),
	}

	// 12.5% of 333 = 41.625 -> 42
	amount, _ := coupon.Discount(CartFacts{Subtotal: 333})
	assert.Equal(t, int64(42), amount)
}

func TestDiscount_FixedCartNeverExceedsSubtotal(t *testing.T) {
	coupon := &Coupon{
		Type:  DiscountFixedCart,
		Value: decimal.NewFromInt(500),
	}

	amount, _ := coupon.Discount(CartFacts{Subtotal: 300})
	assert.Equal(t, int64(300), amount)
}

func TestDiscount_FixedProductAppliesPerMatchingUnit(t *testing.T) {
	coupon := &Coupon{
		Type:       DiscountFixedProduct,
		Value:      decimal.NewFromInt(25),
		ProductIDs: []string{"p-1"},
	}

	amount, _ := coupon.Discount(CartFacts{
		Subtotal: 10_000,
		Lines: []CartLine{
			{ProductID: "p-1", Quantity: 3, UnitPrice: 1000},
			{ProductID: "p-2", Quantity: 5, UnitPrice: 1400},
		},
	})
	assert.Equal(t, int64(75), amount)
}

func TestDiscount_FreeShippingHasNoGoodsDiscount(t *testing.T) {
	coupon := &Coupon{Type: DiscountFreeShipping}

	amount, freeShipping := coupon.Discount(CartFacts{Subtotal: 1000, ShippingCost: 99})

	assert.Equal(t, int64(0), amount)
	assert.True(t, freeShipping)
}

func TestDiscount_ExcludeSaleItemsShrinksBase(t *testing.T) {
	coupon := &Coupon{
		Type:             DiscountPercentage,
		Value:            decimal.NewFromInt(10),
		ExcludeSaleItems: true,
	}

	amount, _ := coupon.Discount(CartFacts{Subtotal: 1000, SaleSubtotal: 600})
	assert.Equal(t, int64(40), amount, "base is 1000-600=400")
}

func TestDiscount_ExcludeSaleItemsSkipsSaleLinesForFixedProduct(t *testing.T) {
	coupon := &Coupon{
		Type:             DiscountFixedProduct,
		Value:            decimal.NewFromInt(10),
		ProductIDs:       []string{"p-1"},
		ExcludeSaleItems: true,
	}

	amount, _ := coupon.Discount(CartFacts{
		Subtotal: 5000,
		Lines: []CartLine{
			{ProductID: "p-1", Quantity: 2, OnSale: true},
			{ProductID: "p-1", Quantity: 1, OnSale: false},
		},
	})
	assert.Equal(t, int64(10), amount)
}

func TestCheckWindow(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	t.Run("inactive coupon behaves as missing", func(t *testing.T) {
		c := &Coupon{Active: false}
		err := c.CheckWindow(now)
		require.Error(t, err)
		assert.Equal(t, ReasonNotFound, err.(*ValidationError).Reason)
	})

	t.Run("not yet started", func(t *testing.T) {
		c := &Coupon{Active: true, StartsAt: &future}
		err := c.CheckWindow(now)
		require.Error(t, err)
		assert.Equal(t, ReasonExpired, err.(*ValidationError).Reason)
	})

	t.Run("expired", func(t *testing.T) {
		c := &Coupon{Active: true, ExpiresAt: &past}
		err := c.CheckWindow(now)
		require.Error(t, err)
		assert.Equal(t, ReasonExpired, err.(*ValidationError).Reason)
	})

	t.Run("inside window", func(t *testing.T) {
		c := &Coupon{Active: true, StartsAt: &past, ExpiresAt: &future}
		assert.NoError(t, c.CheckWindow(now))
	})
}

func TestCheckGlobalLimit(t *testing.T) {
	c := &Coupon{UsageLimitTotal: intPtr(100), UsedCount: 100}
	err := c.CheckGlobalLimit()
	require.Error(t, err)
	assert.Equal(t, ReasonLimitReached, err.(*ValidationError).Reason)

	c.UsedCount = 99
	assert.NoError(t, c.CheckGlobalLimit())

	unlimited := &Coupon{UsedCount: 1_000_000}
	assert.NoError(t, unlimited.CheckGlobalLimit())
}

func TestCheckPerUserLimit(t *testing.T) {
	c := &Coupon{UsageLimitPerUser: intPtr(1)}

	err := c.CheckPerUserLimit(1)
	require.Error(t, err)
	assert.Equal(t, ReasonLimitReached, err.(*ValidationError).Reason)

	assert.NoError(t, c.CheckPerUserLimit(0))
}

func TestCheckOrderValue(t *testing.T) {
	c := &Coupon{MinOrderValue: int64Ptr(500), MaxOrderValue: int64Ptr(10_000)}

	err := c.CheckOrderValue(400)
	require.Error(t, err)
	assert.Equal(t, ReasonOutOfRange, err.(*ValidationError).Reason)

	err = c.CheckOrderValue(10_001)
	require.Error(t, err)
	assert.Equal(t, ReasonOutOfRange, err.(*ValidationError).Reason)

	assert.NoError(t, c.CheckOrderValue(500))
	assert.NoError(t, c.CheckOrderValue(10_000))
}

func TestCheckStacking(t *testing.T) {
	exclusive := &Coupon{IndividualUseOnly: true}

	err := exclusive.CheckStacking(true)
	require.Error(t, err)
	assert.Equal(t, ReasonNotStackable, err.(*ValidationError).Reason)

	assert.NoError(t, exclusive.CheckStacking(false))
	assert.NoError(t, (&Coupon{}).CheckStacking(true))
}
