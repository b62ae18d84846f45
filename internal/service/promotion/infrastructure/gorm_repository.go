// internal/service/promotion/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"bazaar/internal/service/promotion/domain"
)

// GormCouponRepository 是 CouponRepository 的 MySQL 实现。
type GormCouponRepository struct {
	db *gorm.DB
}

func NewGormCouponRepository(db *gorm.DB) *GormCouponRepository {
	return &GormCouponRepository{db: db}
}

func (r *GormCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	var model CouponModel
	err := r.db.WithContext(ctx).
		Where("UPPER(code) = UPPER(?)", code).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCouponNotFound
		}
		return nil, err
	}
	return toDomainCoupon(&model)
}

func (r *GormCouponRepository) CountRedeemedByCustomer(ctx context.Context, couponID int64, customerID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&CouponRedemptionModel{}).
		Where("coupon_id = ? AND customer_id = ?", couponID, customerID).
		Count(&count).Error
	return int(count), err
}

// RedeemOnce 在一个事务里完成「条件递增 + 写 redemption 行」。
// UPDATE 的 WHERE 条件保证 used_count 永远不会越过 usage_limit_total，
// 并发竞争者拿不到行更新即视为次数耗尽。
func (r *GormCouponRepository) RedeemOnce(ctx context.Context, couponID int64, code, customerID, orderID string) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 幂等检查：该订单已计数过则直接返回
		var existing int64
		if err := tx.Model(&CouponRedemptionModel{}).
			Where("order_id = ?", orderID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil
		}

		res := tx.Exec(
			`UPDATE coupons SET used_count = used_count + 1
			 WHERE id = ? AND (usage_limit_total IS NULL OR used_count < usage_limit_total)`,
			couponID,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrLimitReached
		}

		if err := tx.Create(&CouponRedemptionModel{
			CouponID:   couponID,
			Code:       code,
			CustomerID: customerID,
			OrderID:    orderID,
		}).Error; err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// ReleaseByOrder 删除 redemption 行并回退计数；订单没有计数记录时是空操作。
func (r *GormCouponRepository) ReleaseByOrder(ctx context.Context, orderID string) (bool, error) {
	released := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var redemption CouponRedemptionModel
		err := tx.Where("order_id = ?", orderID).First(&redemption).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		if err := tx.Delete(&CouponRedemptionModel{}, redemption.ID).Error; err != nil {
			return err
		}
		// 计数不降到 0 以下
		if err := tx.Exec(
			`UPDATE coupons SET used_count = used_count - 1 WHERE id = ? AND used_count > 0`,
			redemption.CouponID,
		).Error; err != nil {
			return err
		}
		released = true
		return nil
	})
	return released, err
}
