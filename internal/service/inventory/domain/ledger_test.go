package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_DerivedFromQuantityAndThreshold(t *testing.T) {
	cases := []struct {
		name      string
		quantity  int
		threshold int
		want      StockStatus
	}{
		{"zero is out of stock", 0, 5, StatusOutOfStock},
		{"negative is out of stock", -1, 5, StatusOutOfStock},
		{"at threshold is low", 5, 5, StatusLowStock},
		{"below threshold is low", 3, 5, StatusLowStock},
		{"above threshold is in stock", 6, 5, StatusInStock},
		{"zero threshold never reports low", 1, 0, StatusInStock},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := InventoryRecord{SKU: "SKU-1", StockQuantity: tc.quantity, LowStockThreshold: tc.threshold}
			assert.Equal(t, tc.want, record.Status())
		})
	}
}
