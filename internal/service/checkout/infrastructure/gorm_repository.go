// internal/service/checkout/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bazaar/internal/service/checkout/domain"
)

// GormOrderRepository 是 OrderRepository 的 MySQL 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if err := order.CheckInvariant(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(toOrderModel(order)).Error
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	order := toDomainOrder(&model)
	if err := order.CheckInvariant(); err != nil {
		return nil, err
	}
	return order, nil
}

// Update 只落状态类字段，金额与订单行在创建后不可变。
func (r *GormOrderRepository) Update(ctx context.Context, order *domain.Order) error {
	if err := order.CheckInvariant(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"status":          string(order.Status),
			"payment_status":  string(order.PaymentStatus),
			"coupon_redeemed": order.CouponRedeemed,
			"updated_at":      order.UpdatedAt,
		}).Error
}

// GormPaymentAttemptRepository 是 PaymentAttemptRepository 的 MySQL 实现。
type GormPaymentAttemptRepository struct {
	db *gorm.DB
}

func NewGormPaymentAttemptRepository(db *gorm.DB) *GormPaymentAttemptRepository {
	return &GormPaymentAttemptRepository{db: db}
}

func (r *GormPaymentAttemptRepository) Create(ctx context.Context, attempt *domain.PaymentAttempt) error {
	return r.db.WithContext(ctx).Create(toAttemptModel(attempt)).Error
}

func (r *GormPaymentAttemptRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.PaymentAttempt, error) {
	var model PaymentAttemptModel
	err := r.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAttemptNotFound
		}
		return nil, err
	}
	return toDomainAttempt(&model), nil
}

func (r *GormPaymentAttemptRepository) FindOpenByOrderID(ctx context.Context, orderID string) (*domain.PaymentAttempt, error) {
	var model PaymentAttemptModel
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND verified = ?", orderID, false).
		Order("created_at DESC").
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAttemptNotFound
		}
		return nil, err
	}
	return toDomainAttempt(&model), nil
}

// FinalizeOnce 的 WHERE verified = false 保证同一流水只被终局化一次。
// 并发到达的第二次确认拿不到行更新，返回 applied=false。
func (r *GormPaymentAttemptRepository) FinalizeOnce(ctx context.Context, gatewayOrderID string, result domain.AttemptResult, gatewayPaymentID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&PaymentAttemptModel{}).
		Where("gateway_order_id = ? AND verified = ?", gatewayOrderID, false).
		Updates(map[string]interface{}{
			"verified":           true,
			"result":             string(result),
			"gateway_payment_id": gatewayPaymentID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
