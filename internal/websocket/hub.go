package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/middleware"
	"github.com/WandileM7/Wednesday-Whatsapp-assistant-sub001/internal/models"
)

const (
	EventsChannel = "relay_events"
	writeTimeout  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans relay events out to connected operators. With Redis configured
// events go through pub/sub so every instance sees them.
type Hub struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]struct{}
	writeMu     sync.Mutex
	redisClient *redis.Client
	auth        *middleware.AdminAuth
}

func NewHub(redisClient *redis.Client, auth *middleware.AdminAuth) *Hub {
	return &Hub{
		connections: make(map[*websocket.Conn]struct{}),
		redisClient: redisClient,
		auth:        auth,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.auth != nil && h.auth.Enabled() {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if _, err := h.auth.ParseToken(tokenStr); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.register(conn)

	go func() {
		defer h.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[conn] = struct{}{}
	log.Printf("WebSocket connected: %s (total: %d)", conn.RemoteAddr(), len(h.connections))
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conn.Close()
	delete(h.connections, conn)
	log.Printf("WebSocket disconnected: %s", conn.RemoteAddr())
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Start subscribes to the Redis channel until ctx is done. Without Redis it
// does nothing and Publish broadcasts directly.
func (h *Hub) Start(ctx context.Context) {
	if h.redisClient == nil {
		return
	}
	go h.subscribe(ctx)
}

func (h *Hub) subscribe(ctx context.Context) {
	pubsub := h.redisClient.Subscribe(ctx, EventsChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

// Publish sends event to every connected operator.
func (h *Hub) Publish(ctx context.Context, event models.RelayEvent) {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	if h.redisClient != nil {
		if err := h.redisClient.Publish(ctx, EventsChannel, data).Err(); err != nil {
			log.Printf("Failed to publish relay event: %v", err)
		}
		return
	}
	h.broadcast(data)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.connections))
	for conn := range h.connections {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	// gorilla connections allow a single concurrent writer.
	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("WebSocket write to %s failed: %v", conn.RemoteAddr(), err)
		}
	}
}
