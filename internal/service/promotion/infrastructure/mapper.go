// internal/service/promotion/infrastructure/mapper.go
package infrastructure

import (
	"strings"

	"github.com/shopspring/decimal"

	"bazaar/internal/service/promotion/domain"
)

func toDomainCoupon(m *CouponModel) (*domain.Coupon, error) {
	value, err := decimal.NewFromString(m.Value)
	if err != nil {
		return nil, err
	}

	var productIDs []string
	if m.ProductIDs != "" {
		productIDs = strings.Split(m.ProductIDs, ",")
	}

	return &domain.Coupon{
		ID:                m.ID,
		Code:              m.Code,
		Type:              domain.DiscountType(m.Type),
		Value:             value,
		MinOrderValue:     m.MinOrderValue,
		MaxOrderValue:     m.MaxOrderValue,
		MaxDiscount:       m.MaxDiscount,
		UsageLimitTotal:   m.UsageLimitTotal,
		UsageLimitPerUser: m.UsageLimitPerUser,
		UsedCount:         m.UsedCount,
		IndividualUseOnly: m.IndividualUseOnly,
		ExcludeSaleItems:  m.ExcludeSaleItems,
		Active:            m.Active,
		StartsAt:          m.StartsAt,
		ExpiresAt:         m.ExpiresAt,
		ProductIDs:        productIDs,
		EligibilityRule:   m.EligibilityRule,
	}, nil
}
