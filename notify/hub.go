package notify

import (
	"net/http"
	"sync"
	"time"

	"github.com/appforge/canvasflow/logger"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// wsClient wraps one connection with its write lock. The websocket
// package allows a single concurrent writer per connection; workers
// executing workflows for the same session send concurrently, so every
// write must take the lock.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) write(in Instruction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(in)
}

// Hub is a WebSocket-backed Notifier. Each rendering client connects
// with its session id; instructions fan out to every connection of the
// session. A failed write drops that connection only.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]map[*wsClient]bool
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]map[*wsClient]bool),
	}
}

// HandleWS upgrades the request and registers the connection under the
// session id given in the "session" query parameter.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "missing session parameter", http.StatusBadRequest)
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	client := &wsClient{conn: conn}
	h.register(sessionID, client)
	logger.Info("ui client connected", zap.String("session", sessionID))

	// Reader loop only drains control frames; instructions flow one way.
	go func() {
		defer h.unregister(sessionID, client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) register(sessionID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[sessionID] == nil {
		h.clients[sessionID] = make(map[*wsClient]bool)
	}
	h.clients[sessionID][client] = true
}

func (h *Hub) unregister(sessionID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients := h.clients[sessionID]; clients != nil {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, sessionID)
		}
	}
	client.conn.Close()
}

// Send writes the instruction to every connection of the session.
func (h *Hub) Send(sessionID string, in Instruction) {
	h.mu.RLock()
	clients := make([]*wsClient, 0, len(h.clients[sessionID]))
	for client := range h.clients[sessionID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		logger.Debug("no ui client connected for session",
			zap.String("session", sessionID), zap.String("kind", string(in.Kind)))
		return
	}
	for _, client := range clients {
		if err := client.write(in); err != nil {
			logger.Warn("dropping ui client after failed write",
				zap.String("session", sessionID), zap.Error(err))
			h.unregister(sessionID, client)
		}
	}
}
