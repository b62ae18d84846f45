// internal/service/checkout/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/checkout/application/saga"
	"bazaar/internal/service/checkout/domain"
	domainport "bazaar/internal/service/checkout/domain/port"
	checkoutport "bazaar/internal/service/checkout/port"
)

// CheckoutService 是结算编排器。
// 它不在内存中维护任何流程状态：两次 HTTP 交互（下单、确认）之间
// 的一切进度都以订单行与支付流水为准，进程崩溃后可安全续作。
type CheckoutService struct {
	orders   domain.OrderRepository
	attempts domain.PaymentAttemptRepository

	pricing   *domain.PricingEngine
	coupons   domainport.CouponService
	inventory domainport.InventoryLedger
	gateway   domainport.PaymentGateway

	notifier  checkoutport.NotificationProducer
	scheduler checkoutport.DelayScheduler
	status    checkoutport.StatusPublisher
	locker    checkoutport.Locker

	tracer trace.Tracer
	cfg    bootstrap.CheckoutConfig
}

// NewCheckoutService 组装结算编排器。
func NewCheckoutService(
	orders domain.OrderRepository,
	attempts domain.PaymentAttemptRepository,
	pricing *domain.PricingEngine,
	coupons domainport.CouponService,
	inventory domainport.InventoryLedger,
	gateway domainport.PaymentGateway,
	notifier checkoutport.NotificationProducer,
	scheduler checkoutport.DelayScheduler,
	status checkoutport.StatusPublisher,
	locker checkoutport.Locker,
	tracer trace.Tracer,
	cfg bootstrap.CheckoutConfig,
) *CheckoutService {
	return &CheckoutService{
		orders:    orders,
		attempts:  attempts,
		pricing:   pricing,
		coupons:   coupons,
		inventory: inventory,
		gateway:   gateway,
		notifier:  notifier,
		scheduler: scheduler,
		status:    status,
		locker:    locker,
		tracer:    tracer,
		cfg:       cfg,
	}
}

// SubmitOrder 执行结算主链路：重定价 → 优惠券校验 → 库存预占 → 落库 → 通知。
// 订单创建之前是 all-or-nothing 的：任何校验失败都在产生持久化副作用前
// 返回结构化拒绝；预占之后的失败由 Saga 补偿释放。
func (s *CheckoutService) SubmitOrder(ctx context.Context, req *SubmitOrderRequest) (*SubmitOrderResponse, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.SubmitOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("customer.id", req.CustomerID),
		attribute.Int("cart.lines", len(req.Lines)),
	)

	orderID := uuid.NewString()
	orderNumber := newOrderNumber()

	checkoutCtx := &saga.CheckoutContext{
		Ctx:    ctx,
		Tracer: s.tracer,

		CustomerID:    req.CustomerID,
		Lines:         req.Lines,
		CouponCode:    strings.TrimSpace(req.CouponCode),
		PaymentMethod: req.PaymentMethod,
		Address:       req.Address,

		ShippingFlat:    s.cfg.ShippingFlat,
		TaxRatePercent:  s.cfg.TaxRatePercent,
		PaymentDeadline: s.cfg.PaymentDeadline,

		Pricing:   s.pricing,
		Coupons:   s.coupons,
		Inventory: s.inventory,
		Scheduler: s.scheduler,
		Notifier:  s.notifier,
	}

	reprice := &saga.RepriceHandler{}
	reprice.
		SetNext(&saga.CouponHandler{}).
		SetNext(&saga.InventoryHandler{OrderID: orderID}).
		SetNext(saga.NewCreateOrderHandler(s.orders, orderID, orderNumber)).
		SetNext(&saga.NotificationHandler{})

	if err := reprice.Handle(checkoutCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout saga failed")
		checkoutCtx.TriggerCompensation(ctx)

		var insufficient *domainport.InsufficientStockError
		if errors.As(err, &insufficient) {
			return nil, &domain.Rejection{
				Code:    domain.RejectInsufficientStock,
				SKU:     insufficient.SKU,
				Message: insufficient.Error(),
			}
		}
		return nil, err
	}

	order := checkoutCtx.Order
	s.status.Publish(order.ID, order.Status, order.PaymentStatus)
	logger.Ctx(ctx).Info().
		Str("order", order.ID).
		Str("order_number", order.OrderNumber).
		Int64("total", order.Total).
		Msg("order created")

	return &SubmitOrderResponse{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Currency:      order.Currency,
		Subtotal:      order.Subtotal,
		Discount:      order.Discount,
		ShippingCost:  order.ShippingCost,
		Tax:           order.Tax,
		Total:         order.Total,
	}, nil
}

// CreatePaymentIntent 为在线支付订单开启网关支付意向。
// 同一订单重复请求会复用未终局化的既有流水，不会在网关侧开第二笔。
func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, orderID string) (*PaymentIntentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.CreatePaymentIntent")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != domain.PaymentMethodOnline {
		return nil, fmt.Errorf("order %s does not use online payment", orderID)
	}
	if order.Status != domain.StatusPending || order.PaymentStatus != domain.PaymentPending {
		return nil, fmt.Errorf("%w: order %s is %s/%s, cannot open payment intent",
			domain.ErrIllegalTransition, orderID, order.Status, order.PaymentStatus)
	}

	// 幂等复用：已有未终局化的流水直接返回
	existing, err := s.attempts.FindOpenByOrderID(ctx, orderID)
	if err == nil {
		span.AddEvent("reusing open payment attempt")
		return &PaymentIntentResponse{
			OrderID:        orderID,
			GatewayOrderID: existing.GatewayOrderID,
			Amount:         existing.Amount,
			Currency:       existing.Currency,
		}, nil
	}
	if !errors.Is(err, domain.ErrAttemptNotFound) {
		return nil, err
	}

	// 金额永远取服务端计算的订单总额，客户端无从置喙
	gatewayOrderID, err := s.gateway.CreateIntent(ctx, orderID, order.Total, order.Currency)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	now := time.Now()
	attempt := &domain.PaymentAttempt{
		ID:             uuid.NewString(),
		OrderID:        orderID,
		GatewayOrderID: gatewayOrderID,
		Amount:         order.Total,
		Currency:       order.Currency,
		Result:         domain.AttemptPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("persist payment attempt: %w", err)
	}

	logger.Ctx(ctx).Info().Str("order", orderID).Str("gateway_order", gatewayOrderID).Msg("payment intent created")
	return &PaymentIntentResponse{
		OrderID:        orderID,
		GatewayOrderID: gatewayOrderID,
		Amount:         order.Total,
		Currency:       order.Currency,
	}, nil
}

// ConfirmPayment 处理客户端回调或网关 webhook 送达的支付确认。
// FinalizeOnce 是幂等边界：同一笔确认到达零次、一次或多次，订单终态相同，
// 副作用（优惠券计数、库存释放、通知）最多执行一次。
func (s *CheckoutService) ConfirmPayment(ctx context.Context, conf domainport.Confirmation) (*VerifyResponse, error) {
	ctx, span := s.tracer.Start(ctx, "checkout.ConfirmPayment")
	defer span.End()
	span.SetAttributes(attribute.String("gateway.order_id", conf.GatewayOrderID))

	attempt, err := s.attempts.FindByGatewayOrderID(ctx, conf.GatewayOrderID)
	if err != nil {
		return nil, err
	}

	// 已终局化的流水：返回历史结果，不重放任何副作用
	if attempt.Verified {
		span.AddEvent("attempt already finalized, returning prior outcome")
		return s.replayOutcome(ctx, attempt)
	}

	// 签名不合法与网关声称失败走同一条失败路径
	verified := s.gateway.VerifySignature(conf)
	result := domain.AttemptSucceeded
	if !verified || conf.Failed {
		result = domain.AttemptFailed
	}

	applied, err := s.attempts.FinalizeOnce(ctx, conf.GatewayOrderID, result, conf.GatewayPaymentID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// 并发到达的另一次确认抢先终局化，读既有结果返回
		attempt, err = s.attempts.FindByGatewayOrderID(ctx, conf.GatewayOrderID)
		if err != nil {
			return nil, err
		}
		return s.replayOutcome(ctx, attempt)
	}

	if result == domain.AttemptSucceeded {
		return s.finalizePaid(ctx, attempt)
	}
	resp, err := s.finalizeFailed(ctx, attempt)
	if err != nil {
		return nil, err
	}
	if !verified {
		// 订单已按失败处理，向调用方明确是验签失败
		return resp, &domain.Rejection{
			Code:    domain.RejectPaymentVerification,
			Message: "payment confirmation signature mismatch",
		}
	}
	return resp, nil
}

// finalizePaid 在验证成功后推进订单到 PAID/PROCESSING。
// 这是优惠券使用计数唯一允许递增的位置。
func (s *CheckoutService) finalizePaid(ctx context.Context, attempt *domain.PaymentAttempt) (*VerifyResponse, error) {
	order, err := s.orders.FindByID(ctx, attempt.OrderID)
	if err != nil {
		return nil, err
	}

	if err := order.MarkPaid(); err != nil {
		// 取消与确认的竞争：订单状态就是锁，确认晚到不复活订单，
		// 转入人工退款流程。
		if errors.Is(err, domain.ErrIllegalTransition) {
			logger.Ctx(ctx).Error().Err(err).Str("order", order.ID).Msg("payment confirmed after order left PENDING, refund required")
			s.notify(ctx, order, domain.NotifyRefundRequired)
			return &VerifyResponse{
				OrderID:       order.ID,
				Status:        order.Status,
				PaymentStatus: order.PaymentStatus,
				Result:        domain.AttemptSucceeded,
			}, nil
		}
		return nil, err
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("persist paid order: %w", err)
	}

	// 计数失败不回滚订单：客户已付款，超卖一次计数由运营侧消化
	if order.CouponCode != "" {
		if err := s.coupons.RedeemForOrder(ctx, order.CouponCode, order.CustomerID, order.ID); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("order", order.ID).Str("coupon", order.CouponCode).Msg("coupon redemption at payment failed")
		} else {
			order.MarkCouponRedeemed()
			if err := s.orders.Update(ctx, order); err != nil {
				logger.Ctx(ctx).Error().Err(err).Str("order", order.ID).Msg("persist coupon redeemed flag failed")
			}
		}
	}

	s.status.Publish(order.ID, order.Status, order.PaymentStatus)
	s.notify(ctx, order, domain.NotifyOrderPaid)

	return &VerifyResponse{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Result:        domain.AttemptSucceeded,
	}, nil
}

// finalizeFailed 在验证失败后取消订单并释放预占库存。
func (s *CheckoutService) finalizeFailed(ctx context.Context, attempt *domain.PaymentAttempt) (*VerifyResponse, error) {
	order, err := s.orders.FindByID(ctx, attempt.OrderID)
	if err != nil {
		return nil, err
	}

	if err := order.MarkPaymentFailed(); err != nil {
		if errors.Is(err, domain.ErrIllegalTransition) {
			// 订单已离开待支付状态，无事可做
			return &VerifyResponse{
				OrderID:       order.ID,
				Status:        order.Status,
				PaymentStatus: order.PaymentStatus,
				Result:        domain.AttemptFailed,
			}, nil
		}
		return nil, err
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("persist failed order: %w", err)
	}

	if err := s.inventory.Release(ctx, order.ID, reserveLines(order)); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order", order.ID).Msg("stock release after payment failure failed")
	}

	s.status.Publish(order.ID, order.Status, order.PaymentStatus)
	s.notify(ctx, order, domain.NotifyPaymentFailed)

	return &VerifyResponse{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Result:        domain.AttemptFailed,
	}, nil
}

// replayOutcome 把已终局化流水对应的订单现状返回给重复到达的确认。
func (s *CheckoutService) replayOutcome(ctx context.Context, attempt *domain.PaymentAttempt) (*VerifyResponse, error) {
	order, err := s.orders.FindByID(ctx, attempt.OrderID)
	if err != nil {
		return nil, err
	}
	return &VerifyResponse{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Result:        attempt.Result,
	}, nil
}

// CancelOrder 取消一个未进入终态的订单：释放库存，回退已计入的优惠券次数。
func (s *CheckoutService) CancelOrder(ctx context.Context, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "checkout.CancelOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if err := order.Cancel(); err != nil {
		return err
	}
	if err := s.orders.Update(ctx, order); err != nil {
		return fmt.Errorf("persist cancelled order: %w", err)
	}

	if err := s.inventory.Release(ctx, order.ID, reserveLines(order)); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order", order.ID).Msg("stock release on cancellation failed")
	}
	if order.CouponRedeemed {
		if err := s.coupons.ReleaseForOrder(ctx, order.ID); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("order", order.ID).Msg("coupon release on cancellation failed")
		}
	}

	s.status.Publish(order.ID, order.Status, order.PaymentStatus)
	s.notify(ctx, order, domain.NotifyOrderCancelled)
	logger.Ctx(ctx).Info().Str("order", order.ID).Msg("order cancelled")
	return nil
}

// HandlePaymentTimeout 由 sweeper 在延迟消息到期后调用。
// 按订单加分布式锁，与其它副本上同时到达的支付确认互斥；
// 订单仍未支付才取消，已支付或已取消的订单是 no-op。
func (s *CheckoutService) HandlePaymentTimeout(ctx context.Context, event *domain.PaymentTimeoutCheckEvent) error {
	ctx, span := s.tracer.Start(ctx, "checkout.HandlePaymentTimeout")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", event.OrderID))

	return s.locker.WithLock(event.OrderID, func() error {
		order, err := s.orders.FindByID(ctx, event.OrderID)
		if err != nil {
			if errors.Is(err, domain.ErrOrderNotFound) {
				logger.Ctx(ctx).Warn().Str("order", event.OrderID).Msg("timeout check for unknown order, skipping")
				return nil
			}
			return err
		}

		if order.Status != domain.StatusPending || order.PaymentStatus != domain.PaymentPending {
			span.AddEvent("order no longer pending, timeout is a no-op")
			return nil
		}

		logger.Ctx(ctx).Info().Str("order", order.ID).Time("deadline", event.Deadline).Msg("payment deadline passed, cancelling order")
		return s.CancelOrder(ctx, order.ID)
	})
}

func (s *CheckoutService) notify(ctx context.Context, order *domain.Order, kind domain.NotificationKind) {
	err := s.notifier.Notify(ctx, &domain.NotificationEvent{
		Kind:        kind,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		Total:       order.Total,
		Currency:    order.Currency,
		Status:      order.Status,
		At:          time.Now(),
	})
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order", order.ID).Str("kind", string(kind)).Msg("notification send failed")
	}
}

func reserveLines(order *domain.Order) []domainport.ReserveLine {
	lines := make([]domainport.ReserveLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, domainport.ReserveLine{SKU: item.SKU, Quantity: item.Quantity})
	}
	return lines
}

// newOrderNumber 生成对客户可读的订单号，形如 ORD-20260829-1A2B3C。
func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}
