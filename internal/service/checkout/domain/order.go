// internal/service/checkout/domain/order.go
package domain

import (
	"errors"
	"fmt"
	"time"
)

// PaymentMethod 区分在线支付与货到付款两条结算路径。
type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "ONLINE"
	PaymentMethodCOD    PaymentMethod = "COD"
)

// Address 是下单时提交的收货地址快照。
type Address struct {
	Name       string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
	Phone      string
}

// OrderItem 是购买时刻商品信息的反规范化拷贝。
// 与在售商品记录刻意解耦，后续改价、改名不会回溯影响历史订单。
type OrderItem struct {
	ProductID string
	VariantID string
	Name      string
	SKU       string
	UnitPrice int64 // 最小货币单位
	Quantity  int
	LineTotal int64
	OnSale    bool
}

// Order 是订单聚合的根实体。金额字段一律为最小货币单位。
// 不变式: Total = Subtotal - Discount + ShippingCost + Tax，且 Total >= 0。
type Order struct {
	ID          string
	OrderNumber string
	CustomerID  string
	Currency    string

	Items []OrderItem

	Subtotal     int64
	Discount     int64
	ShippingCost int64
	Tax          int64
	Total        int64

	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod

	CouponCode     string
	CouponRedeemed bool // 优惠券使用次数是否已计入（仅在到达 PAID 时置位）

	ShippingAddress Address

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder 创建一个新的订单实例，初始状态为 PENDING/PENDING。
// 创建即校验金额不变式，非法金额在这里挡住而不是落库后再发现。
func NewOrder(id, orderNumber, customerID, currency string, items []OrderItem, subtotal, discount, shipping, tax int64, method PaymentMethod, coupon string, addr Address) (*Order, error) {
	if id == "" || customerID == "" || len(items) == 0 {
		return nil, errors.New("cannot create order with empty required fields")
	}
	total := subtotal - discount + shipping + tax
	if total < 0 {
		return nil, &Rejection{Code: RejectNegativeTotal, Message: fmt.Sprintf("computed total %d is negative", total)}
	}

	now := time.Now()
	return &Order{
		ID:              id,
		OrderNumber:     orderNumber,
		CustomerID:      customerID,
		Currency:        currency,
		Items:           items,
		Subtotal:        subtotal,
		Discount:        discount,
		ShippingCost:    shipping,
		Tax:             tax,
		Total:           total,
		Status:          StatusPending,
		PaymentStatus:   PaymentPending,
		PaymentMethod:   method,
		CouponCode:      coupon,
		ShippingAddress: addr,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// CheckInvariant 校验金额不变式，仓储在读写边界上调用。
func (o *Order) CheckInvariant() error {
	if o.Total != o.Subtotal-o.Discount+o.ShippingCost+o.Tax {
		return fmt.Errorf("order %s violates total invariant", o.ID)
	}
	if o.Total < 0 {
		return fmt.Errorf("order %s has negative total", o.ID)
	}
	return nil
}

func (o *Order) transitionTo(next Status) error {
	if !o.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s (order %s)", ErrIllegalTransition, o.Status, next, o.ID)
	}
	o.Status = next
	o.UpdatedAt = time.Now()
	return nil
}

// MarkPaid 记录一次已验证的成功支付。
// 这是优惠券使用计数唯一允许递增的流转点。
func (o *Order) MarkPaid() error {
	if o.PaymentStatus != PaymentPending {
		return fmt.Errorf("%w: payment already %s (order %s)", ErrIllegalTransition, o.PaymentStatus, o.ID)
	}
	if err := o.transitionTo(StatusProcessing); err != nil {
		return err
	}
	o.PaymentStatus = PaymentPaid
	return nil
}

// MarkPaymentFailed 记录一次已验证的失败/被拒支付。
// 订单随之取消（除非已被人工挂起），预占库存由调用方释放。
func (o *Order) MarkPaymentFailed() error {
	if o.PaymentStatus != PaymentPending {
		return fmt.Errorf("%w: payment already %s (order %s)", ErrIllegalTransition, o.PaymentStatus, o.ID)
	}
	o.PaymentStatus = PaymentFailed
	if o.Status == StatusOnHold {
		o.UpdatedAt = time.Now()
		return nil
	}
	return o.transitionTo(StatusCancelled)
}

// ConfirmCashOnDelivery 让 COD 订单跳过网关直接进入履约，
// 支付维度保持 PENDING，由线下对账流程更新。
func (o *Order) ConfirmCashOnDelivery() error {
	if o.PaymentMethod != PaymentMethodCOD {
		return fmt.Errorf("%w: order %s is not cash-on-delivery", ErrIllegalTransition, o.ID)
	}
	return o.transitionTo(StatusProcessing)
}

// Cancel 取消订单。只有未进入终态的订单可以取消。
func (o *Order) Cancel() error {
	return o.transitionTo(StatusCancelled)
}

// Hold 人工挂起一个待支付订单。
func (o *Order) Hold() error {
	if o.Status != StatusPending {
		return fmt.Errorf("%w: %s -> %s (order %s)", ErrIllegalTransition, o.Status, StatusOnHold, o.ID)
	}
	return o.transitionTo(StatusOnHold)
}

// Complete 履约完成。
func (o *Order) Complete() error {
	return o.transitionTo(StatusCompleted)
}

// Refund 退款。仅 COMPLETED/PROCESSING 且已支付的订单可退。
func (o *Order) Refund() error {
	if o.PaymentStatus != PaymentPaid {
		return fmt.Errorf("%w: cannot refund unpaid order %s", ErrIllegalTransition, o.ID)
	}
	if err := o.transitionTo(StatusRefunded); err != nil {
		return err
	}
	o.PaymentStatus = PaymentRefunded
	return nil
}

// MarkCouponRedeemed 记录优惠券计数已完成，保证取消时的补偿只执行一次。
func (o *Order) MarkCouponRedeemed() {
	o.CouponRedeemed = true
	o.UpdatedAt = time.Now()
}
