package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"bazaar/internal/service/promotion/domain"
)

// mockCouponRepo implements domain.CouponRepository for testing.
type mockCouponRepo struct {
	coupon         *domain.Coupon
	findErr        error
	usedByCustomer int

	redeemApplied bool
	redeemErr     error
	redeemCalls   int

	released     bool
	releaseCalls int
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _ string) (*domain.Coupon, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.coupon, nil
}

func (m *mockCouponRepo) CountRedeemedByCustomer(_ context.Context, _ int64, _ string) (int, error) {
	return m.usedByCustomer, nil
}

func (m *mockCouponRepo) RedeemOnce(_ context.Context, _ int64, _, _, _ string) (bool, error) {
	m.redeemCalls++
	return m.redeemApplied, m.redeemErr
}

func (m *mockCouponRepo) ReleaseByOrder(_ context.Context, _ string) (bool, error) {
	m.releaseCalls++
	return m.released, nil
}

// mockRuleEngine implements domain.RuleEngine.
type mockRuleEngine struct {
	result bool
	err    error
}

func (m *mockRuleEngine) Evaluate(_ string, _ domain.Fact) (bool, error) {
	return m.result, m.err
}

func newService(repo *mockCouponRepo, rules domain.RuleEngine) *PromotionService {
	if rules == nil {
		rules = &mockRuleEngine{result: true}
	}
	return NewPromotionService(repo, rules, otel.Tracer("test"))
}

func activeCoupon() *domain.Coupon {
	return &domain.Coupon{
		ID:     1,
		Code:   "SAVE10",
		Type:   domain.DiscountPercentage,
		Value:  decimal.NewFromInt(10),
		Active: true,
	}
}

func reasonOf(t *testing.T, err error) domain.Reason {
	t.Helper()
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	return validation.Reason
}

func TestValidate_UnknownCode(t *testing.T) {
	svc := newService(&mockCouponRepo{findErr: domain.ErrCouponNotFound}, nil)

	_, err := svc.Validate(context.Background(), &ValidateRequest{Code: "NOPE"})

	assert.Equal(t, domain.ReasonNotFound, reasonOf(t, err))
}

func TestValidate_PerUserLimitShortCircuits(t *testing.T) {
	coupon := activeCoupon()
	limit := 1
	coupon.UsageLimitPerUser = &limit

	svc := newService(&mockCouponRepo{coupon: coupon, usedByCustomer: 1}, nil)

	_, err := svc.Validate(context.Background(), &ValidateRequest{
		Code:       "SAVE10",
		CustomerID: "c-1",
		Facts:      domain.CartFacts{Subtotal: 1000},
	})

	assert.Equal(t, domain.ReasonLimitReached, reasonOf(t, err))
}

func TestValidate_OrderValueOutOfRange(t *testing.T) {
	coupon := activeCoupon()
	min := int64(500)
	coupon.MinOrderValue = &min

	svc := newService(&mockCouponRepo{coupon: coupon}, nil)

	_, err := svc.Validate(context.Background(), &ValidateRequest{
		Code:  "SAVE10",
		Facts: domain.CartFacts{Subtotal: 400},
	})

	assert.Equal(t, domain.ReasonOutOfRange, reasonOf(t, err))
}

func TestValidate_EligibilityRuleRejects(t *testing.T) {
	coupon := activeCoupon()
	coupon.EligibilityRule = "item_count >= 3"

	svc := newService(&mockCouponRepo{coupon: coupon}, &mockRuleEngine{result: false})

	_, err := svc.Validate(context.Background(), &ValidateRequest{
		Code:  "SAVE10",
		Facts: domain.CartFacts{Subtotal: 1000},
	})

	assert.Equal(t, domain.ReasonNotEligible, reasonOf(t, err))
}

func TestValidate_BrokenRuleTreatedAsNotEligible(t *testing.T) {
	coupon := activeCoupon()
	coupon.EligibilityRule = "((("

	svc := newService(&mockCouponRepo{coupon: coupon}, &mockRuleEngine{err: assert.AnError})

	_, err := svc.Validate(context.Background(), &ValidateRequest{
		Code:  "SAVE10",
		Facts: domain.CartFacts{Subtotal: 1000},
	})

	assert.Equal(t, domain.ReasonNotEligible, reasonOf(t, err))
}

func TestValidate_HappyPathQuotesDiscount(t *testing.T) {
	coupon := activeCoupon()
	cap := int64(50)
	coupon.MaxDiscount = &cap

	svc := newService(&mockCouponRepo{coupon: coupon}, nil)

	resp, err := svc.Validate(context.Background(), &ValidateRequest{
		Code:       "SAVE10",
		CustomerID: "c-1",
		Facts:      domain.CartFacts{Subtotal: 1000},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(50), resp.Discount)
	assert.False(t, resp.FreeShipping)
	assert.Equal(t, "SAVE10", resp.Code)
}

func TestValidate_HasNoSideEffects(t *testing.T) {
	repo := &mockCouponRepo{coupon: activeCoupon()}
	svc := newService(repo, nil)

	_, err := svc.Validate(context.Background(), &ValidateRequest{
		Code:  "SAVE10",
		Facts: domain.CartFacts{Subtotal: 1000},
	})

	require.NoError(t, err)
	assert.Zero(t, repo.redeemCalls)
	assert.Zero(t, repo.releaseCalls)
}

func TestRedeemForOrder_IdempotentOnSecondCall(t *testing.T) {
	repo := &mockCouponRepo{coupon: activeCoupon(), redeemApplied: false}
	svc := newService(repo, nil)

	err := svc.RedeemForOrder(context.Background(), "SAVE10", "c-1", "o-1")

	require.NoError(t, err, "already-redeemed order is a no-op, not an error")
	assert.Equal(t, 1, repo.redeemCalls)
}

func TestRedeemForOrder_PropagatesLimitReached(t *testing.T) {
	repo := &mockCouponRepo{coupon: activeCoupon(), redeemErr: domain.ErrLimitReached}
	svc := newService(repo, nil)

	err := svc.RedeemForOrder(context.Background(), "SAVE10", "c-1", "o-1")

	assert.ErrorIs(t, err, domain.ErrLimitReached)
}
