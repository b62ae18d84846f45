// internal/service/promotion/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/promotion/domain"
)

// PromotionService 定义了优惠域对外提供的业务用例。
type PromotionService struct {
	couponRepo domain.CouponRepository
	rules      domain.RuleEngine
	tracer     trace.Tracer
}

// NewPromotionService 创建一个新的优惠服务实例。
func NewPromotionService(repo domain.CouponRepository, rules domain.RuleEngine, tracer trace.Tracer) *PromotionService {
	return &PromotionService{couponRepo: repo, rules: rules, tracer: tracer}
}

// Validate 在下单时刻评估一张优惠券。
// 检查按固定顺序执行，首个失败即短路；整个过程没有任何副作用，
// 使用计数只会在订单到达 PAID 时由 RedeemForOrder 计入。
func (s *PromotionService) Validate(ctx context.Context, req *ValidateRequest) (*ValidateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "promotion.Validate")
	defer span.End()
	span.SetAttributes(
		attribute.String("coupon.code", req.Code),
		attribute.String("customer.id", req.CustomerID),
	)

	coupon, err := s.couponRepo.FindByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, domain.ErrCouponNotFound) {
			return nil, &domain.ValidationError{Reason: domain.ReasonNotFound}
		}
		span.RecordError(err)
		return nil, err
	}

	// 1. 启用状态与时间窗口
	if err := coupon.CheckWindow(time.Now()); err != nil {
		return nil, err
	}
	// 2. 全局次数
	if err := coupon.CheckGlobalLimit(); err != nil {
		return nil, err
	}
	// 3. 单客户次数
	usedByCustomer, err := s.couponRepo.CountRedeemedByCustomer(ctx, coupon.ID, req.CustomerID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if err := coupon.CheckPerUserLimit(usedByCustomer); err != nil {
		return nil, err
	}
	// 4. 订单金额区间
	if err := coupon.CheckOrderValue(req.Facts.Subtotal); err != nil {
		return nil, err
	}
	// 5. 互斥叠加
	if err := coupon.CheckStacking(req.OtherCouponApplied); err != nil {
		return nil, err
	}
	// 6. 管理员自定义的 CEL 适用条件（未配置则跳过）
	if coupon.EligibilityRule != "" {
		fact := domain.Fact{
			Subtotal:     req.Facts.Subtotal,
			SaleSubtotal: req.Facts.SaleSubtotal,
			ShippingCost: req.Facts.ShippingCost,
			ItemCount:    itemCount(req.Facts.Lines),
			CustomerID:   req.CustomerID,
		}
		ok, err := s.rules.Evaluate(coupon.EligibilityRule, fact)
		if err != nil {
			// 规则本身有语法问题属于配置缺陷，按不适用处理并记录
			span.RecordError(err)
			logger.Ctx(ctx).Error().Err(err).Str("coupon", coupon.Code).Msg("eligibility rule evaluation failed")
			return nil, &domain.ValidationError{Reason: domain.ReasonNotEligible}
		}
		if !ok {
			return nil, &domain.ValidationError{Reason: domain.ReasonNotEligible}
		}
	}

	discount, freeShipping := coupon.Discount(req.Facts)
	span.SetAttributes(attribute.Int64("coupon.discount", discount))

	return &ValidateResponse{
		Code:         coupon.Code,
		CouponID:     coupon.ID,
		Discount:     discount,
		FreeShipping: freeShipping,
	}, nil
}

// RedeemForOrder 在订单到达 PAID 时计入一次使用。
// 底层是原子条件递增，按订单幂等；次数在校验与支付之间被抢完时返回 ErrLimitReached。
func (s *PromotionService) RedeemForOrder(ctx context.Context, code, customerID, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "promotion.RedeemForOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("coupon.code", code),
		attribute.String("order.id", orderID),
	)

	coupon, err := s.couponRepo.FindByCode(ctx, code)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("redeem coupon %s: %w", code, err)
	}

	applied, err := s.couponRepo.RedeemOnce(ctx, coupon.ID, coupon.Code, customerID, orderID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if !applied {
		logger.Ctx(ctx).Info().Str("coupon", code).Str("order", orderID).Msg("coupon already redeemed for order, skipping")
		return nil
	}

	logger.Ctx(ctx).Info().Str("coupon", code).Str("order", orderID).Msg("coupon redeemed")
	return nil
}

// ReleaseForOrder 是 RedeemForOrder 的补偿：已计数的订单被取消时回退次数。
func (s *PromotionService) ReleaseForOrder(ctx context.Context, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "promotion.ReleaseForOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	released, err := s.couponRepo.ReleaseByOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if released {
		logger.Ctx(ctx).Info().Str("order", orderID).Msg("coupon redemption rolled back")
	}
	return nil
}

func itemCount(lines []domain.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
