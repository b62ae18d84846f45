// internal/service/checkout/interfaces/timeout_consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/checkout/application"
	"bazaar/internal/service/checkout/domain"
)

// PaymentTimeoutConsumer 是驱动适配器：监听到期的超时检查消息并驱动应用服务。
type PaymentTimeoutConsumer struct {
	reader  *kafka.Reader
	service *application.CheckoutService
	wg      sync.WaitGroup
	// stopped 由 Stop 置位、消费 goroutine 读取，必须原子访问
	stopped atomic.Bool
}

func NewPaymentTimeoutConsumer(reader *kafka.Reader, service *application.CheckoutService) *PaymentTimeoutConsumer {
	return &PaymentTimeoutConsumer{reader: reader, service: service}
}

// Start 开始监听。长期运行，直到 ctx 取消或 Stop 被调用。
func (c *PaymentTimeoutConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Ctx(ctx).Info().Str("topic", c.reader.Config().Topic).Msg("payment timeout consumer started")
		for {
			if c.stopped.Load() {
				return
			}
			// FetchMessage 而不是 ReadMessage，处理成功后才提交 offset
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || c.stopped.Load() {
					logger.Ctx(ctx).Info().Msg("payment timeout consumer shutting down")
					return
				}
				logger.Ctx(ctx).Error().Err(err).Msg("fetch timeout message failed, retrying")
				time.Sleep(time.Second)
				continue
			}

			carrier := mq.KafkaHeaderCarrier(msg.Headers)
			msgCtx := otel.GetTextMapPropagator().Extract(ctx, &carrier)

			c.process(msgCtx, msg)

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				logger.Ctx(ctx).Error().Err(err).Msg("commit timeout message failed")
			}
		}
	}()
}

func (c *PaymentTimeoutConsumer) process(ctx context.Context, msg kafka.Message) {
	var event domain.PaymentTimeoutCheckEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("key", string(msg.Key)).Msg("malformed timeout event, skipping")
		return
	}

	// 取消失败不中断消费循环，下一轮延迟消息或人工巡检兜底
	if err := c.service.HandlePaymentTimeout(ctx, &event); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("order", event.OrderID).Msg("payment timeout handling failed")
	}
}

// Stop 优雅地停止消费者。
func (c *PaymentTimeoutConsumer) Stop(ctx context.Context) {
	c.stopped.Store(true)
	c.reader.Close()
	c.wg.Wait()
	logger.Ctx(ctx).Info().Msg("payment timeout consumer stopped")
}
