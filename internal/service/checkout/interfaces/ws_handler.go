// internal/service/checkout/interfaces/ws_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bazaar/internal/pkg/logger"
	"bazaar/internal/service/checkout/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
		return true
	},
}

// statusMessage 是推送给客户端的订单状态载荷。
type statusMessage struct {
	OrderID       string    `json:"orderId"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"paymentStatus"`
	At            time.Time `json:"at"`
}

// wsClient 是一条订阅某个订单状态的 WebSocket 连接。
type wsClient struct {
	conn    *websocket.Conn
	send    chan []byte
	orderID string
}

// StatusHub 维护按订单分组的活跃连接并广播状态变化。
// 实现 port.StatusPublisher；纯进程内广播，没有订阅者时 Publish 是 no-op。
type StatusHub struct {
	mu      sync.RWMutex
	clients map[string]map[*wsClient]struct{} // orderID -> clients
}

func NewStatusHub() *StatusHub {
	return &StatusHub{clients: make(map[string]map[*wsClient]struct{})}
}

// Publish 把状态变化推给该订单的所有订阅者。
// send channel 打满说明客户端读得太慢，直接丢弃这条更新。
func (h *StatusHub) Publish(orderID string, status domain.Status, paymentStatus domain.PaymentStatus) {
	payload, err := json.Marshal(statusMessage{
		OrderID:       orderID,
		Status:        string(status),
		PaymentStatus: string(paymentStatus),
		At:            time.Now(),
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[orderID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}

// ServeWS 把 HTTP 连接升级为 WebSocket 并注册到 Hub。
// 客户端用 ?orderId= 指定要订阅的订单。
func (h *StatusHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("orderId")
	if orderID == "" {
		http.Error(w, "orderId is required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, 16), orderID: orderID}
	h.register(client)

	go h.writePump(client)
	go h.readPump(client)
}

func (h *StatusHub) register(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.orderID] == nil {
		h.clients[client.orderID] = make(map[*wsClient]struct{})
	}
	h.clients[client.orderID][client] = struct{}{}
}

func (h *StatusHub) unregister(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.clients[client.orderID]; ok {
		if _, ok := set[client]; ok {
			delete(set, client)
			close(client.send)
			if len(set) == 0 {
				delete(h.clients, client.orderID)
			}
		}
	}
}

func (h *StatusHub) writePump(client *wsClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()
	for {
		select {
		case payload, ok := <-client.send:
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump 只消费心跳与关闭帧，客户端不上行业务数据。
func (h *StatusHub) readPump(client *wsClient) {
	defer func() {
		h.unregister(client)
		client.conn.Close()
	}()
	client.conn.SetReadLimit(512)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
