// cmd/checkout-service/main.go
package main

import (
	"context"
	"log"
	"strings"

	"go.opentelemetry.io/otel"

	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/database"
	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/pkg/redis"
	"bazaar/internal/service/checkout/application"
	"bazaar/internal/service/checkout/domain"
	"bazaar/internal/service/checkout/infrastructure"
	"bazaar/internal/service/checkout/infrastructure/adapter"
	"bazaar/internal/service/checkout/interfaces"
	checkoutport "bazaar/internal/service/checkout/port"
	inventoryinfra "bazaar/internal/service/inventory/infrastructure"
	promoapp "bazaar/internal/service/promotion/application"
	promoinfra "bazaar/internal/service/promotion/infrastructure"
	"bazaar/internal/service/promotion/infrastructure/rule"
)

const serviceName = "checkout-service"

// main 是 checkout 服务的组装根：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8080,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := bootstrap.GetCurrentConfig()
			tracer := otel.Tracer(serviceName)

			db, err := database.Open(database.Options{
				Addr:     cfg.Infra.Mysql.Addr,
				User:     cfg.Infra.Mysql.User,
				Password: cfg.Infra.Mysql.Password,
				Database: cfg.Infra.Mysql.Database,
			})
			if err != nil {
				log.Fatalf("failed to open mysql: %v", err)
			}
			if err := db.AutoMigrate(
				&infrastructure.OrderModel{},
				&infrastructure.OrderItemModel{},
				&infrastructure.PaymentAttemptModel{},
				&infrastructure.ProductModel{},
				&inventoryinfra.InventoryModel{},
				&inventoryinfra.StockMovementModel{},
				&promoinfra.CouponModel{},
				&promoinfra.CouponRedemptionModel{},
			); err != nil {
				log.Fatalf("failed to migrate schema: %v", err)
			}

			redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
			if err != nil {
				log.Fatalf("failed to initialize redis client: %v", err)
			}

			// 优惠域
			ruleEngine, err := rule.NewCELRuleEngine()
			if err != nil {
				log.Fatalf("failed to build rule engine: %v", err)
			}
			promotions := promoapp.NewPromotionService(
				promoinfra.NewGormCouponRepository(db),
				ruleEngine,
				tracer,
			)

			// 库存台账
			ledger, err := inventoryinfra.NewGormInventoryLedger(db, redisClient, cfg.App.FeatureFlags.EnableFlashInventory)
			if err != nil {
				log.Fatalf("failed to build inventory ledger: %v", err)
			}
			if err := ledger.WarmFlashStock(context.Background()); err != nil {
				log.Printf("WARN: could not warm flash stock: %v", err)
			}

			// 结算域适配器
			brokers := strings.Split(cfg.Infra.Kafka.Brokers, ",")
			notifier := adapter.NewNotificationKafkaAdapter(brokers)
			scheduler := adapter.NewSchedulerKafkaAdapter(brokers)
			gateway := adapter.NewGatewayHTTPAdapter(
				httpclient.NewClient(tracer),
				cfg.Infra.Gateway.BaseURL,
				cfg.Infra.Gateway.KeyID,
				cfg.Infra.Gateway.Secret,
			)
			statusHub := interfaces.NewStatusHub()

			checkout := application.NewCheckoutService(
				infrastructure.NewGormOrderRepository(db),
				infrastructure.NewGormPaymentAttemptRepository(db),
				domain.NewPricingEngine(adapter.NewCatalogGormAdapter(db), cfg.App.Checkout.Currency),
				adapter.NewCouponLocalAdapter(promotions),
				ledger,
				gateway,
				notifier,
				scheduler,
				statusHub,
				// 确认路径上的互斥由订单状态机保证，HTTP 进程不需要分布式锁
				checkoutport.NopLocker{},
				tracer,
				cfg.App.Checkout,
			)

			handler := interfaces.NewCheckoutHandler(checkout, redisClient, statusHub)
			handler.RegisterRoutes(appCtx.Mux)
		},
	})
}
