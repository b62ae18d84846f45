// internal/service/checkout/infrastructure/adapter/gateway_http_adapter.go
package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"bazaar/internal/pkg/httpclient"
	"bazaar/internal/service/checkout/domain/port"
)

// GatewayHTTPAdapter 通过 HTTP 对接外部支付网关，实现 port.PaymentGateway。
// 签名验证在本地完成：用共享密钥重算 HMAC 再比对，不回源网关。
type GatewayHTTPAdapter struct {
	client  *httpclient.Client
	baseURL string
	keyID   string
	secret  string
}

func NewGatewayHTTPAdapter(client *httpclient.Client, baseURL, keyID, secret string) *GatewayHTTPAdapter {
	return &GatewayHTTPAdapter{client: client, baseURL: baseURL, keyID: keyID, secret: secret}
}

type createIntentRequest struct {
	MerchantOrderID string `json:"merchantOrderId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
}

type createIntentResponse struct {
	GatewayOrderID string `json:"gatewayOrderId"`
}

// CreateIntent 以服务端计算的精确金额开启一笔支付意向。
func (a *GatewayHTTPAdapter) CreateIntent(ctx context.Context, orderID string, amount int64, currency string) (string, error) {
	var resp createIntentResponse
	err := a.client.PostJSON(
		ctx,
		a.baseURL+"/v1/payment-intents",
		&createIntentRequest{MerchantOrderID: orderID, Amount: amount, Currency: currency},
		&resp,
		a.keyID+":"+a.secret,
	)
	if err != nil {
		return "", fmt.Errorf("gateway create intent: %w", err)
	}
	if resp.GatewayOrderID == "" {
		return "", fmt.Errorf("gateway returned empty order id for %s", orderID)
	}
	return resp.GatewayOrderID, nil
}

// VerifySignature 用共享密钥重算 HMAC-SHA256 并恒定时间比对。
// 签名覆盖 gatewayOrderID|gatewayPaymentID|failed 标记，任何字段被篡改都会失配。
func (a *GatewayHTTPAdapter) VerifySignature(conf port.Confirmation) bool {
	expected := SignConfirmation(a.secret, conf.GatewayOrderID, conf.GatewayPaymentID, conf.Failed)
	provided, err := hex.DecodeString(conf.Signature)
	if err != nil {
		return false
	}
	expectedRaw, _ := hex.DecodeString(expected)
	return hmac.Equal(provided, expectedRaw)
}

// SignConfirmation 计算确认载荷的十六进制 HMAC 签名。
// 网关侧用同样的算法产签，测试里也用它构造合法载荷。
func SignConfirmation(secret, gatewayOrderID, gatewayPaymentID string, failed bool) string {
	status := "ok"
	if failed {
		status = "failed"
	}
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s|%s|%s", gatewayOrderID, gatewayPaymentID, status)
	return hex.EncodeToString(mac.Sum(nil))
}
