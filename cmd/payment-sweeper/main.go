// cmd/payment-sweeper/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/database"
	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/pkg/redis"
	"bazaar/internal/pkg/zookeeper"
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

const (
	serviceName  = "payment-sweeper"
	pollInterval = 2 * time.Second
	// delayLevel 的延迟语义由 delay-timestamp 消息头承载，主题只做分级
	delayLevel = adapter.DelayTopic
)

// delayRelay 轮询延迟主题，把到期的消息转投 real-topic。
type delayRelay struct {
	reader  *kafka.Reader
	brokers []string

	writerLock sync.Mutex
	writers    map[string]*kafka.Writer
}

func newDelayRelay(brokers []string) *delayRelay {
	return &delayRelay{
		reader:  mq.NewKafkaReader(brokers, delayLevel, serviceName+"-relay-group"),
		brokers: brokers,
		writers: make(map[string]*kafka.Writer),
	}
}

func (r *delayRelay) run(ctx context.Context) error {
	logger.Ctx(ctx).Info().Str("topic", delayLevel).Msg("delay relay started")
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	defer r.reader.Close()
	defer r.closeWriters()

	for {
		select {
		case <-ticker.C:
			r.drainDue(ctx)
		case <-ctx.Done():
			logger.Ctx(ctx).Info().Msg("delay relay shutting down")
			return nil
		}
	}
}

// drainDue 逐条检查队头消息，未到期即停（同一主题内消息按投递时间有序）。
func (r *delayRelay) drainDue(ctx context.Context) {
	for {
		fetchCtx, cancel := context.WithTimeout(ctx, pollInterval)
		msg, err := r.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			return
		}

		due, err := time.Parse(time.RFC3339, header(msg.Headers, "delay-timestamp"))
		if err != nil {
			// 缺失或损坏的时间戳按立即到期处理，避免消息卡死队头
			due = msg.Time
		}
		if time.Now().Before(due) {
			return
		}

		realTopic := header(msg.Headers, "real-topic")
		if realTopic == "" {
			logger.Ctx(ctx).Error().Str("key", string(msg.Key)).Msg("real-topic header missing, skipping message")
			_ = r.reader.CommitMessages(ctx, msg)
			continue
		}

		if err := r.publish(ctx, realTopic, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("topic", realTopic).Msg("relay publish failed, will retry")
			return
		}
		if err := r.reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("relay commit failed")
			return
		}
	}
}

func (r *delayRelay) publish(ctx context.Context, realTopic string, msg kafka.Message) error {
	r.writerLock.Lock()
	writer, ok := r.writers[realTopic]
	if !ok {
		writer = mq.NewKafkaWriter(r.brokers, realTopic)
		r.writers[realTopic] = writer
	}
	r.writerLock.Unlock()

	out := kafka.Message{Key: msg.Key, Value: msg.Value}
	mq.InjectTraceContext(mq.ExtractTraceContext(ctx, msg.Headers), &out.Headers)
	return writer.WriteMessages(ctx, out)
}

func (r *delayRelay) closeWriters() {
	r.writerLock.Lock()
	defer r.writerLock.Unlock()
	for _, writer := range r.writers {
		_ = writer.Close()
	}
}

func header(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8082,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := bootstrap.GetCurrentConfig()
			tracer := otel.Tracer(serviceName)

			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())

			db, err := database.Open(database.Options{
				Addr:     cfg.Infra.Mysql.Addr,
				User:     cfg.Infra.Mysql.User,
				Password: cfg.Infra.Mysql.Password,
				Database: cfg.Infra.Mysql.Database,
			})
			if err != nil {
				log.Fatalf("failed to open mysql: %v", err)
			}

			redisClient, err := redis.NewClient(cfg.Infra.Redis.Addrs)
			if err != nil {
				log.Fatalf("failed to initialize redis client: %v", err)
			}

			// 多副本部署时取消动作必须互斥，用 ZooKeeper 顺序节点锁串行化
			zkConn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Addrs)
			if err != nil {
				log.Fatalf("failed to connect zookeeper: %v", err)
			}
			locker := adapter.NewZookeeperLockerAdapter(zkConn, 10*time.Second)

			ruleEngine, err := rule.NewCELRuleEngine()
			if err != nil {
				log.Fatalf("failed to build rule engine: %v", err)
			}
			promotions := promoapp.NewPromotionService(
				promoinfra.NewGormCouponRepository(db),
				ruleEngine,
				tracer,
			)

			ledger, err := inventoryinfra.NewGormInventoryLedger(db, redisClient, cfg.App.FeatureFlags.EnableFlashInventory)
			if err != nil {
				log.Fatalf("failed to build inventory ledger: %v", err)
			}

			brokers := strings.Split(cfg.Infra.Kafka.Brokers, ",")
			notifier := adapter.NewNotificationKafkaAdapter(brokers)
			scheduler := adapter.NewSchedulerKafkaAdapter(brokers)
			gateway := adapter.NewGatewayHTTPAdapter(
				httpclient.NewClient(tracer),
				cfg.Infra.Gateway.BaseURL,
				cfg.Infra.Gateway.KeyID,
				cfg.Infra.Gateway.Secret,
			)

			checkout := application.NewCheckoutService(
				infrastructure.NewGormOrderRepository(db),
				infrastructure.NewGormPaymentAttemptRepository(db),
				domain.NewPricingEngine(adapter.NewCatalogGormAdapter(db), cfg.App.Checkout.Currency),
				adapter.NewCouponLocalAdapter(promotions),
				ledger,
				gateway,
				notifier,
				scheduler,
				checkoutport.NopStatusPublisher{},
				locker,
				tracer,
				cfg.App.Checkout,
			)

			timeoutReader := mq.NewKafkaReader(brokers, adapter.PaymentTimeoutTopic, serviceName+"-timeout-group")
			consumer := interfaces.NewPaymentTimeoutConsumer(timeoutReader, checkout)

			g, ctx := errgroup.WithContext(context.Background())
			g.Go(func() error {
				return newDelayRelay(brokers).run(ctx)
			})
			g.Go(func() error {
				consumer.Start(ctx)
				return nil
			})
			go func() {
				if err := g.Wait(); err != nil {
					log.Fatalf("sweeper worker failed: %v", err)
				}
			}()
		},
	})
}
