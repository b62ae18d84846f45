// cmd/notification-service/main.go
package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"bazaar/internal/pkg/bootstrap"
	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/mq"
	"bazaar/internal/service/checkout/infrastructure/adapter"
	"bazaar/internal/service/notification"
)

const (
	serviceName     = "notification-service"
	consumerGroupID = "notification-consumer-group"
)

func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8083,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			cfg := bootstrap.GetCurrentConfig()

			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())

			reader := mq.NewKafkaReader(
				strings.Split(cfg.Infra.Kafka.Brokers, ","),
				adapter.NotificationTopic,
				consumerGroupID,
			)

			consumer := notification.NewConsumer(reader, notification.LogSender{}, otel.Tracer(serviceName))
			go func() {
				ctx := context.Background()
				if err := consumer.Run(ctx); err != nil {
					logger.Ctx(ctx).Fatal().Err(err).Msg("notification consumer exited")
				}
			}()
		},
	})
}
