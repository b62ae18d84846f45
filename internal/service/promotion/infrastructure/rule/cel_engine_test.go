package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/service/promotion/domain"
)

func TestEvaluate_BooleanExpressions(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	fact := domain.Fact{
		Subtotal:     1500,
		SaleSubtotal: 200,
		ShippingCost: 99,
		ItemCount:    4,
		CustomerID:   "c-42",
	}

	cases := []struct {
		rule string
		want bool
	}{
		{"subtotal >= 1000", true},
		{"subtotal - sale_subtotal > 1400", false},
		{"item_count >= 3 && shipping_cost < 100", true},
		{`customer_id.startsWith("c-")`, true},
		{"sale_subtotal == 0", false},
	}
	for _, tc := range cases {
		got, err := engine.Evaluate(tc.rule, fact)
		require.NoError(t, err, tc.rule)
		assert.Equal(t, tc.want, got, tc.rule)
	}
}

func TestEvaluate_CompileErrorSurfaces(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	_, err = engine.Evaluate("subtotal >>> 1", domain.Fact{})
	assert.Error(t, err)
}

func TestEvaluate_NonBooleanResultRejected(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	_, err = engine.Evaluate("subtotal + 1", domain.Fact{Subtotal: 1})
	assert.Error(t, err)
}

func TestEvaluate_ProgramCacheReturnsSameResult(t *testing.T) {
	engine, err := NewCELRuleEngine()
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		got, err := engine.Evaluate("item_count > 0", domain.Fact{ItemCount: 1})
		require.NoError(t, err)
		assert.True(t, got)
	}
}
