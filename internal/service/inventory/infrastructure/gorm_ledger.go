// internal/service/inventory/infrastructure/gorm_ledger.go
package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/redis"
	"bazaar/internal/service/checkout/domain/port"
	"bazaar/internal/service/inventory/domain"
)

const (
	flashReserveScript = "inventory_flash_reserve"
	flashReleaseScript = "inventory_flash_release"

	flashStockKeyFmt = "inventory:flash:{%s}:stock"
	flashOrderKeyFmt = "inventory:flash:{%s}:orders"
)

// flashReserveLua 原子判断并扣减热点 SKU 的 Redis 预扣库存，
// 同时用订单集合保证同一订单不会重复扣减。
// KEYS[1]=stock KEYS[2]=orders ARGV[1]=qty ARGV[2]=orderID
// 返回 1=成功 0=库存不足 -1=该订单已扣减过
const flashReserveLua = `
if redis.call('SISMEMBER', KEYS[2], ARGV[2]) == 1 then
    return -1
end
local stock = tonumber(redis.call('GET', KEYS[1]) or '-1')
if stock < tonumber(ARGV[1]) then
    return 0
end
redis.call('DECRBY', KEYS[1], ARGV[1])
redis.call('SADD', KEYS[2], ARGV[2])
return 1
`

// flashReleaseLua 回补预扣库存，仅对确实扣减过的订单生效。
const flashReleaseLua = `
if redis.call('SISMEMBER', KEYS[2], ARGV[2]) == 0 then
    return 0
end
redis.call('INCRBY', KEYS[1], ARGV[1])
redis.call('SREM', KEYS[2], ARGV[2])
return 1
`

// GormInventoryLedger 实现结算域的 InventoryLedger 出站端口。
// 普通 SKU 走 MySQL 条件扣减；标记为 FlashSale 的热点 SKU
// 先走 Redis Lua 预扣，挡掉绝大多数超卖竞争后再落库。
type GormInventoryLedger struct {
	db          *gorm.DB
	redisClient *redis.Client
	flashOn     bool
}

func NewGormInventoryLedger(db *gorm.DB, redisClient *redis.Client, enableFlash bool) (*GormInventoryLedger, error) {
	l := &GormInventoryLedger{db: db, redisClient: redisClient, flashOn: enableFlash && redisClient != nil}
	if l.flashOn {
		if err := redisClient.LoadScriptFromContent(flashReserveScript, flashReserveLua); err != nil {
			return nil, err
		}
		if err := redisClient.LoadScriptFromContent(flashReleaseScript, flashReleaseLua); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Reserve 原子地为订单预占全部行。
// 单个事务内逐行条件扣减，任何一行不足即回滚整个事务，保证 all-or-nothing。
func (l *GormInventoryLedger) Reserve(ctx context.Context, orderID string, lines []port.ReserveLine) error {
	flashLines, dbLines, err := l.splitFlash(ctx, lines)
	if err != nil {
		return err
	}

	reservedFlash := make([]port.ReserveLine, 0, len(flashLines))
	for _, line := range flashLines {
		if err := l.flashReserve(ctx, orderID, line); err != nil {
			// 已预扣的热点行回补后整体失败
			l.flashReleaseAll(ctx, orderID, reservedFlash)
			return err
		}
		reservedFlash = append(reservedFlash, line)
	}

	if err := l.reserveInDB(ctx, orderID, dbLines); err != nil {
		l.flashReleaseAll(ctx, orderID, reservedFlash)
		return err
	}

	// 热点行的 MySQL 扣减异步对账即可，这里直接记流水
	if len(flashLines) > 0 {
		if err := l.recordFlashMovements(ctx, orderID, flashLines); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("order", orderID).Msg("record flash stock movements failed")
		}
	}
	return nil
}

func (l *GormInventoryLedger) reserveInDB(ctx context.Context, orderID string, lines []port.ReserveLine) error {
	if len(lines) == 0 {
		return nil
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			res := tx.Exec(
				`UPDATE inventory SET stock_quantity = stock_quantity - ?
				 WHERE sku = ? AND stock_quantity >= ?`,
				line.Quantity, line.SKU, line.Quantity,
			)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&InventoryModel{}).Where("sku = ?", line.SKU).Count(&count).Error; err != nil {
					return err
				}
				if count == 0 {
					return fmt.Errorf("%w: %s", domain.ErrSKUNotFound, line.SKU)
				}
				return &port.InsufficientStockError{SKU: line.SKU}
			}

			if err := tx.Create(&StockMovementModel{
				OrderID:  orderID,
				SKU:      line.SKU,
				Reason:   domain.ReasonReserve,
				Quantity: line.Quantity,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Release 按订单回补库存。幂等性由 stock_movements 的
// (order_id, sku, reason) 唯一索引保证：RELEASE 行插不进去就跳过回补。
func (l *GormInventoryLedger) Release(ctx context.Context, orderID string, lines []port.ReserveLine) error {
	flashLines, dbLines, err := l.splitFlash(ctx, lines)
	if err != nil {
		return err
	}

	l.flashReleaseAll(ctx, orderID, flashLines)

	if len(dbLines) == 0 {
		return nil
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range dbLines {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&StockMovementModel{
				OrderID:  orderID,
				SKU:      line.SKU,
				Reason:   domain.ReasonRelease,
				Quantity: line.Quantity,
			})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// 该行已释放过
				continue
			}
			if err := tx.Exec(
				`UPDATE inventory SET stock_quantity = stock_quantity + ? WHERE sku = ?`,
				line.Quantity, line.SKU,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// StatusOf 返回某个 SKU 的台账行（含推导出的库存状态）。
func (l *GormInventoryLedger) StatusOf(ctx context.Context, sku string) (*domain.InventoryRecord, error) {
	var model InventoryModel
	err := l.db.WithContext(ctx).Where("sku = ?", sku).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSKUNotFound
		}
		return nil, err
	}
	return &domain.InventoryRecord{
		SKU:               model.SKU,
		ProductID:         model.ProductID,
		StockQuantity:     model.StockQuantity,
		LowStockThreshold: model.LowStockThreshold,
		FlashSale:         model.FlashSale,
	}, nil
}

// WarmFlashStock 把热点 SKU 的库存灌入 Redis，服务启动时调用。
func (l *GormInventoryLedger) WarmFlashStock(ctx context.Context) error {
	if !l.flashOn {
		return nil
	}
	var models []InventoryModel
	if err := l.db.WithContext(ctx).Where("flash_sale = ?", true).Find(&models).Error; err != nil {
		return err
	}
	for _, m := range models {
		key := fmt.Sprintf(flashStockKeyFmt, m.SKU)
		if err := l.redisClient.GetClient().Set(ctx, key, m.StockQuantity, 0).Err(); err != nil {
			return err
		}
	}
	logger.Ctx(ctx).Info().Int("skus", len(models)).Msg("flash stock warmed into redis")
	return nil
}

func (l *GormInventoryLedger) splitFlash(ctx context.Context, lines []port.ReserveLine) (flash, db []port.ReserveLine, err error) {
	if !l.flashOn {
		return nil, lines, nil
	}
	for _, line := range lines {
		record, err := l.StatusOf(ctx, line.SKU)
		if err != nil {
			if errors.Is(err, domain.ErrSKUNotFound) {
				return nil, nil, fmt.Errorf("%w: %s", domain.ErrSKUNotFound, line.SKU)
			}
			return nil, nil, err
		}
		if record.FlashSale {
			flash = append(flash, line)
		} else {
			db = append(db, line)
		}
	}
	return flash, db, nil
}

func (l *GormInventoryLedger) flashReserve(ctx context.Context, orderID string, line port.ReserveLine) error {
	keys := []string{
		fmt.Sprintf(flashStockKeyFmt, line.SKU),
		fmt.Sprintf(flashOrderKeyFmt, line.SKU),
	}
	result, err := l.redisClient.RunScript(ctx, flashReserveScript, keys, line.Quantity, orderID)
	if err != nil {
		return err
	}
	switch result.(int64) {
	case 1, -1:
		return nil
	default:
		return &port.InsufficientStockError{SKU: line.SKU}
	}
}

func (l *GormInventoryLedger) flashReleaseAll(ctx context.Context, orderID string, lines []port.ReserveLine) {
	for _, line := range lines {
		keys := []string{
			fmt.Sprintf(flashStockKeyFmt, line.SKU),
			fmt.Sprintf(flashOrderKeyFmt, line.SKU),
		}
		if _, err := l.redisClient.RunScript(ctx, flashReleaseScript, keys, line.Quantity, orderID); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("sku", line.SKU).Str("order", orderID).Msg("flash stock release failed")
		}
	}
}

func (l *GormInventoryLedger) recordFlashMovements(ctx context.Context, orderID string, lines []port.ReserveLine) error {
	movements := make([]StockMovementModel, 0, len(lines))
	now := time.Now()
	for _, line := range lines {
		movements = append(movements, StockMovementModel{
			OrderID:   orderID,
			SKU:       line.SKU,
			Reason:    domain.ReasonReserve,
			Quantity:  line.Quantity,
			CreatedAt: now,
		})
	}
	return l.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&movements).Error
}
