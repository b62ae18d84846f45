// internal/service/notification/consumer.go
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	checkoutdomain "bazaar/internal/service/checkout/domain"
)

// Sender 把渲染好的通知投递出去。生产实现对接邮件服务商，
// 这里提供的 LogSender 只落结构化日志。
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// LogSender 把通知写进日志，本地与测试环境使用。
type LogSender struct{}

func (LogSender) Send(ctx context.Context, recipient, subject, body string) error {
	logger.Ctx(ctx).Info().
		Str("recipient", recipient).
		Str("subject", subject).
		Str("body", body).
		Msg("notification delivered")
	return nil
}

// Consumer 消费结算域的通知事件并渲染投递。
type Consumer struct {
	reader *kafka.Reader
	sender Sender
	tracer trace.Tracer
}

func NewConsumer(reader *kafka.Reader, sender Sender, tracer trace.Tracer) *Consumer {
	return &Consumer{reader: reader, sender: sender, tracer: tracer}
}

// Run 阻塞消费直到 ctx 取消。
// 通知投递失败只记日志后提交 offset：宁可丢一封邮件，也不能让消费组卡死。
func (c *Consumer) Run(ctx context.Context) error {
	logger.Ctx(ctx).Info().Str("topic", c.reader.Config().Topic).Msg("notification consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Ctx(ctx).Error().Err(err).Msg("fetch notification message failed, retrying")
			time.Sleep(time.Second)
			continue
		}

		c.process(mq.ExtractTraceContext(ctx, msg.Headers), msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Msg("commit notification message failed")
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	ctx, span := c.tracer.Start(ctx, "notification.Process",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", msg.Topic),
			attribute.Int64("messaging.kafka.message.offset", msg.Offset),
		),
	)
	defer span.End()

	var event checkoutdomain.NotificationEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed notification event")
		logger.Ctx(ctx).Error().Err(err).Str("key", string(msg.Key)).Msg("malformed notification event, skipping")
		return
	}
	span.SetAttributes(
		attribute.String("order.id", event.OrderID),
		attribute.String("notification.kind", string(event.Kind)),
	)

	subject, body := render(&event)
	if err := c.sender.Send(ctx, event.CustomerID, subject, body); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order", event.OrderID).Msg("notification delivery failed")
	}
}

// render 按事件类型生成邮件标题与正文。
func render(event *checkoutdomain.NotificationEvent) (subject, body string) {
	amount := fmt.Sprintf("%d.%02d %s", event.Total/100, event.Total%100, event.Currency)
	switch event.Kind {
	case checkoutdomain.NotifyOrderCreated:
		return fmt.Sprintf("Order %s received", event.OrderNumber),
			fmt.Sprintf("We received your order %s for %s. Complete payment to start fulfilment.", event.OrderNumber, amount)
	case checkoutdomain.NotifyOrderPaid:
		return fmt.Sprintf("Order %s confirmed", event.OrderNumber),
			fmt.Sprintf("Payment of %s confirmed. Your order %s is now being processed.", amount, event.OrderNumber)
	case checkoutdomain.NotifyPaymentFailed:
		return fmt.Sprintf("Payment failed for order %s", event.OrderNumber),
			fmt.Sprintf("Payment for order %s could not be verified. Please retry with a new checkout.", event.OrderNumber)
	case checkoutdomain.NotifyOrderCancelled:
		return fmt.Sprintf("Order %s cancelled", event.OrderNumber),
			fmt.Sprintf("Your order %s has been cancelled. Any reserved items were returned to stock.", event.OrderNumber)
	case checkoutdomain.NotifyRefundRequired:
		return fmt.Sprintf("Refund required for order %s", event.OrderNumber),
			fmt.Sprintf("A payment of %s arrived for order %s after cancellation. Support will issue a refund.", amount, event.OrderNumber)
	default:
		return fmt.Sprintf("Update for order %s", event.OrderNumber),
			fmt.Sprintf("Order %s is now %s.", event.OrderNumber, event.Status)
	}
}
