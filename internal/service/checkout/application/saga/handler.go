// internal/service/checkout/application/saga/handler.go
package saga

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/checkout/domain"
	domainport "bazaar/internal/service/checkout/domain/port"
	checkoutport "bazaar/internal/service/checkout/port"
)

// CheckoutContext 在结算 Saga 流程中传递上下文数据。
// 外部依赖全部以出站端口出现，每个步骤只面向接口。
type CheckoutContext struct {
	Ctx    context.Context
	Tracer trace.Tracer

	// 请求输入
	CustomerID    string
	Lines         []domain.SubmittedLine
	CouponCode    string
	PaymentMethod domain.PaymentMethod
	Address       domain.Address

	// 计价参数
	ShippingFlat    int64
	TaxRatePercent  int64
	PaymentDeadline time.Duration

	// 中间产物：逐步由各步骤填充
	Cart         *domain.CartSnapshot
	Discount     int64
	FreeShipping bool
	Order        *domain.Order

	// 出站端口
	Pricing   *domain.PricingEngine
	Coupons   domainport.CouponService
	Inventory domainport.InventoryLedger
	Scheduler checkoutport.DelayScheduler
	Notifier  checkoutport.NotificationProducer

	// Saga 补偿栈，失败时按注册的逆序执行
	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// AddCompensation 注册一个补偿操作，后注册的先执行。
func (c *CheckoutContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

// TriggerCompensation 在某个步骤失败后回滚已完成的步骤。
func (c *CheckoutContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().Int("count", len(c.compensations)).Msg("executing saga compensations")
	for _, comp := range c.compensations {
		comp(ctx)
	}
	c.compensations = nil
}

// Handler 是结算步骤的责任链接口。
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(checkoutCtx *CheckoutContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(checkoutCtx *CheckoutContext) error {
	if h.next != nil {
		return h.next.Handle(checkoutCtx)
	}
	return nil
}
