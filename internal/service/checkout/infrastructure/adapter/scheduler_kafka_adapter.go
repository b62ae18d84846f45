// internal/service/checkout/infrastructure/adapter/scheduler_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/checkout/domain"
)

const (
	// DelayTopic 是延迟队列的入口主题，sweeper 按 delay-timestamp 到期后转投 real-topic
	DelayTopic = "delay_topic_1m"
	// PaymentTimeoutTopic 是到期消息的真实目标主题
	PaymentTimeoutTopic = "payment-timeout-check-topic"
)

// SchedulerKafkaAdapter 实现 port.DelayScheduler。
// 延迟语义由主题 + 消息头约定实现：消息先进延迟主题，
// sweeper 等到 delay-timestamp 再把载荷转投 real-topic。
type SchedulerKafkaAdapter struct {
	delayWriter *kafka.Writer
}

func NewSchedulerKafkaAdapter(brokers []string) *SchedulerKafkaAdapter {
	return &SchedulerKafkaAdapter{
		delayWriter: mq.NewKafkaWriter(brokers, DelayTopic),
	}
}

// SchedulePaymentTimeout 投递一条支付超时检查的延迟消息。
func (a *SchedulerKafkaAdapter) SchedulePaymentTimeout(ctx context.Context, event *domain.PaymentTimeoutCheckEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "real-topic", Value: []byte(PaymentTimeoutTopic)},
			{Key: "delay-timestamp", Value: []byte(event.Deadline.Format(time.RFC3339))},
		},
	}
	mq.InjectTraceContext(ctx, &msg.Headers)

	return a.delayWriter.WriteMessages(ctx, msg)
}

func (a *SchedulerKafkaAdapter) Close() error {
	return a.delayWriter.Close()
}
