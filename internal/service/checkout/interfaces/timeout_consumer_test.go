package interfaces

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

// Stop 关闭 reader 后 FetchMessage 会带错返回，消费 goroutine 必须据此退出，
// 而不是把关闭误判成可重试的故障继续循环。
func TestPaymentTimeoutConsumer_StopUnblocksConsumeLoop(t *testing.T) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   []string{"127.0.0.1:1"}, // 不可达：FetchMessage 只会因 Close 解除阻塞
		Topic:     "payment-timeout-check-topic",
		Partition: 0,
		MaxWait:   100 * time.Millisecond,
	})
	consumer := NewPaymentTimeoutConsumer(reader, nil)

	ctx := context.Background()
	consumer.Start(ctx)

	done := make(chan struct{})
	go func() {
		consumer.Stop(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("consumer goroutine did not exit after Stop")
	}
}
