// internal/service/checkout/infrastructure/adapter/notification_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/checkout/domain"
)

// NotificationTopic 是通知事件的 Kafka 主题，notification-service 消费它渲染邮件。
const NotificationTopic = "checkout-notification-topic"

// NotificationKafkaAdapter 实现 port.NotificationProducer。
type NotificationKafkaAdapter struct {
	writer *kafka.Writer
}

func NewNotificationKafkaAdapter(brokers []string) *NotificationKafkaAdapter {
	return &NotificationKafkaAdapter{
		writer: mq.NewKafkaWriter(brokers, NotificationTopic),
	}
}

// Notify 发送一条通知事件。key 取订单 ID，同一订单的事件落在同一分区保持有序。
func (a *NotificationKafkaAdapter) Notify(ctx context.Context, event *domain.NotificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return mq.ProduceMessage(ctx, a.writer, []byte(event.OrderID), payload)
}

func (a *NotificationKafkaAdapter) Close() error {
	return a.writer.Close()
}
