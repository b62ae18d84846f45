// internal/service/checkout/interfaces/http_handler.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/pkg/redis"
	"bazaar/internal/service/checkout/application"
	"bazaar/internal/service/checkout/domain"
	"bazaar/internal/service/checkout/domain/port"
)

const serviceName = "checkout-service"

var (
	ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_orders_created_total",
		Help: "Orders successfully created, by payment method.",
	}, []string{"payment_method"})

	checkoutRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_rejections_total",
		Help: "Checkout submissions rejected before order creation, by rejection code.",
	}, []string{"code"})

	paymentVerifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_verifications_total",
		Help: "Payment confirmations processed, by terminal result.",
	}, []string{"result"})
)

// CheckoutHandler 封装结算服务的 HTTP 处理器。
type CheckoutHandler struct {
	service *application.CheckoutService
	redis   *redis.Client
	ws      *StatusHub
}

func NewCheckoutHandler(service *application.CheckoutService, redisClient *redis.Client, ws *StatusHub) *CheckoutHandler {
	return &CheckoutHandler{service: service, redis: redisClient, ws: ws}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/checkout/order", h.submitOrder)
	mux.HandleFunc("/checkout/payment-intent", h.createPaymentIntent)
	mux.HandleFunc("/checkout/verify", h.verifyPayment)
	mux.HandleFunc("/checkout/webhook", h.gatewayWebhook)
	if h.ws != nil {
		mux.HandleFunc("/checkout/events", h.ws.ServeWS)
	}
}

type submitOrderRequest struct {
	CustomerID    string `json:"customerId"`
	CouponCode    string `json:"couponCode,omitempty"`
	PaymentMethod string `json:"paymentMethod"`
	Lines         []struct {
		ProductID string `json:"productId"`
		VariantID string `json:"variantId,omitempty"`
		UnitPrice int64  `json:"unitPrice"`
		Quantity  int    `json:"quantity"`
		LineTotal int64  `json:"lineTotal,omitempty"`
	} `json:"lines"`
	Address struct {
		Name       string `json:"name"`
		Line1      string `json:"line1"`
		Line2      string `json:"line2,omitempty"`
		City       string `json:"city"`
		State      string `json:"state,omitempty"`
		PostalCode string `json:"postalCode"`
		Country    string `json:"country"`
		Phone      string `json:"phone,omitempty"`
	} `json:"address"`
}

func (h *CheckoutHandler) submitOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := extractTraceContext(r)
	ctx, span := otel.Tracer(serviceName).Start(ctx, "api.SubmitOrder")
	defer span.End()

	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CustomerID == "" || len(req.Lines) == 0 {
		http.Error(w, "customerId and lines are required", http.StatusBadRequest)
		return
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if method == "" {
		method = domain.PaymentMethodOnline
	}
	if method != domain.PaymentMethodOnline && method != domain.PaymentMethodCOD {
		http.Error(w, "unknown payment method", http.StatusBadRequest)
		return
	}

	lines := make([]domain.SubmittedLine, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, domain.SubmittedLine{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			LineTotal: l.LineTotal,
		})
	}

	resp, err := h.service.SubmitOrder(ctx, &application.SubmitOrderRequest{
		CustomerID:    req.CustomerID,
		Lines:         lines,
		CouponCode:    req.CouponCode,
		PaymentMethod: method,
		Address: domain.Address{
			Name:       req.Address.Name,
			Line1:      req.Address.Line1,
			Line2:      req.Address.Line2,
			City:       req.Address.City,
			State:      req.Address.State,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
			Phone:      req.Address.Phone,
		},
	})
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	ordersCreated.WithLabelValues(string(method)).Inc()
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"orderId":       resp.OrderID,
		"orderNumber":   resp.OrderNumber,
		"status":        resp.Status,
		"paymentStatus": resp.PaymentStatus,
		"currency":      resp.Currency,
		"subtotal":      resp.Subtotal,
		"discount":      resp.Discount,
		"shippingCost":  resp.ShippingCost,
		"tax":           resp.Tax,
		"total":         resp.Total,
	})
}

func (h *CheckoutHandler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := extractTraceContext(r)
	ctx, span := otel.Tracer(serviceName).Start(ctx, "api.CreatePaymentIntent")
	defer span.End()

	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		http.Error(w, "orderId is required", http.StatusBadRequest)
		return
	}

	resp, err := h.service.CreatePaymentIntent(ctx, req.OrderID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orderId":        resp.OrderID,
		"gatewayOrderId": resp.GatewayOrderID,
		"amount":         resp.Amount,
		"currency":       resp.Currency,
	})
}

type confirmationRequest struct {
	OrderID          string `json:"orderId,omitempty"`
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
	Failed           bool   `json:"failed,omitempty"`
}

// verifyPayment 处理客户端回传的支付确认。
func (h *CheckoutHandler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := extractTraceContext(r)
	ctx, span := otel.Tracer(serviceName).Start(ctx, "api.VerifyPayment")
	defer span.End()

	var req confirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GatewayOrderID == "" {
		http.Error(w, "gatewayOrderId is required", http.StatusBadRequest)
		return
	}

	h.confirm(ctx, w, req)
}

// gatewayWebhook 处理网关异步送达的同一确认载荷。
// 与 verify 路由到完全相同的处理逻辑；Redis SetNX 只是去重优化，
// 真正的幂等保证在 PaymentAttempt 的终局化条件更新上。
func (h *CheckoutHandler) gatewayWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := extractTraceContext(r)
	ctx, span := otel.Tracer(serviceName).Start(ctx, "api.GatewayWebhook")
	defer span.End()

	var req confirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GatewayOrderID == "" {
		http.Error(w, "gatewayOrderId is required", http.StatusBadRequest)
		return
	}

	if h.redis != nil {
		dedupeKey := "checkout:webhook:" + req.GatewayOrderID + ":" + req.Signature
		first, err := h.redis.SetNX(ctx, dedupeKey, "1", 24*time.Hour)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("webhook dedupe check failed, processing anyway")
		} else if !first {
			span.AddEvent("duplicate webhook delivery, skipping")
			writeJSON(w, http.StatusOK, map[string]string{"status": "duplicate"})
			return
		}
	}

	h.confirm(ctx, w, req)
}

func (h *CheckoutHandler) confirm(ctx context.Context, w http.ResponseWriter, req confirmationRequest) {
	resp, err := h.service.ConfirmPayment(ctx, port.Confirmation{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
		Failed:           req.Failed,
	})
	if err != nil && resp == nil {
		h.writeError(ctx, w, err)
		return
	}

	paymentVerifications.WithLabelValues(string(resp.Result)).Inc()

	status := http.StatusOK
	body := map[string]interface{}{
		"orderId":       resp.OrderID,
		"status":        resp.Status,
		"paymentStatus": resp.PaymentStatus,
		"result":        resp.Result,
	}
	if rej, ok := domain.AsRejection(err); ok {
		status = http.StatusUnprocessableEntity
		body["code"] = rej.Code
		body["message"] = "payment failed, please retry"
	}
	writeJSON(w, status, body)
}

func (h *CheckoutHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	if rej, ok := domain.AsRejection(err); ok {
		checkoutRejections.WithLabelValues(string(rej.Code)).Inc()
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"code":    rej.Code,
			"sku":     rej.SKU,
			"message": rej.Message,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrAttemptNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrIllegalTransition):
		// 状态机拒绝属于编程/集成缺陷，记 fatal 级日志排查
		logger.Ctx(ctx).Error().Err(err).Msg("FATAL: illegal order state transition attempted")
		http.Error(w, "conflicting order state", http.StatusConflict)
	default:
		logger.Ctx(ctx).Error().Err(err).Msg("checkout request failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func extractTraceContext(r *http.Request) context.Context {
	propagator := otel.GetTextMapPropagator()
	return propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
