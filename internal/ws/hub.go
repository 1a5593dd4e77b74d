package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"moto-hail/internal/auth"
	"moto-hail/internal/logger"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type connKey struct {
	role auth.Role
	id   string
}

// Hub upgrades authenticated clients and pushes JSON events to them.
// One connection per (role, subject); a newer connection replaces the
// older one.
type Hub struct {
	log    *logger.Logger
	jwtMgr *auth.Manager

	mu    sync.Mutex
	conns map[connKey]*conn
}

type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// NewHub builds an empty hub.
func NewHub(log *logger.Logger, jwtMgr *auth.Manager) *Hub {
	return &Hub{
		log:    log,
		jwtMgr: jwtMgr,
		conns:  make(map[connKey]*conn),
	}
}

// Handler returns an HTTP handler that authenticates the request for the
// given role, upgrades it, and keeps the connection registered until the
// peer goes away.
func (h *Hub) Handler(role auth.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, err := auth.FromAuthorization(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		claims, err := h.jwtMgr.ParseAndValidate(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		if err := auth.RoleAllowed(claims, role); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}

		sock, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.log.Error(r.Context(), "ws_upgrade_failed", "failed to upgrade to WebSocket", err, nil)
			return
		}
		h.serve(r.Context(), connKey{role: role, id: claims.Subject}, sock)
	}
}

func (h *Hub) serve(ctx context.Context, key connKey, sock *websocket.Conn) {
	c := &conn{ws: sock}

	h.mu.Lock()
	if old, ok := h.conns[key]; ok {
		_ = old.ws.Close()
	}
	h.conns[key] = c
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		if h.conns[key] == c {
			delete(h.conns, key)
		}
		h.mu.Unlock()
		_ = sock.Close()
	}()

	h.log.Info(ctx, "ws_connected", "client connected", map[string]any{
		"role":    key.role.String(),
		"subject": key.id,
	})

	sock.SetReadLimit(1 << 20)
	_ = sock.SetReadDeadline(time.Now().Add(readTimeout))
	sock.SetPongHandler(func(string) error {
		return sock.SetReadDeadline(time.Now().Add(readTimeout))
	})

	stop := make(chan struct{})
	defer close(stop)
	go h.pingLoop(ctx, c, stop)

	// Drain the socket; the hub is push-only, client frames are discarded.
	for {
		if _, _, err := sock.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Error(ctx, "ws_unexpected_close", "connection closed unexpectedly", err, map[string]any{
					"subject": key.id,
				})
			}
			return
		}
		_ = sock.SetReadDeadline(time.Now().Add(readTimeout))
	}
}

func (h *Hub) pingLoop(ctx context.Context, c *conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
			c.writeMu.Unlock()
			if err != nil {
				_ = c.ws.Close()
				h.log.Error(ctx, "ws_ping_failed", "failed to send ping", err, nil)
				return
			}
		}
	}
}

// Send pushes a typed JSON event to one client. Missing clients are not
// an error; pushes are best effort.
func (h *Hub) Send(role auth.Role, subject, event string, payload any) {
	h.mu.Lock()
	c, ok := h.conns[connKey{role: role, id: subject}]
	h.mu.Unlock()
	if !ok {
		return
	}

	body, err := json.Marshal(map[string]any{
		"type":    event,
		"payload": payload,
	})
	if err != nil {
		h.log.Error(context.Background(), "ws_marshal_failed", "failed to marshal push event", err, map[string]any{
			"event": event,
		})
		return
	}

	c.writeMu.Lock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = c.ws.WriteMessage(websocket.TextMessage, body)
	c.writeMu.Unlock()
	if err != nil {
		_ = c.ws.Close()
	}
}

// Broadcast pushes a typed JSON event to every client with the role.
func (h *Hub) Broadcast(role auth.Role, event string, payload any) {
	h.mu.Lock()
	targets := make([]*conn, 0, len(h.conns))
	for key, c := range h.conns {
		if key.role == role {
			targets = append(targets, c)
		}
	}
	h.mu.Unlock()

	body, err := json.Marshal(map[string]any{
		"type":    event,
		"payload": payload,
	})
	if err != nil {
		return
	}

	for _, c := range targets {
		c.writeMu.Lock()
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
		werr := c.ws.WriteMessage(websocket.TextMessage, body)
		c.writeMu.Unlock()
		if werr != nil {
			_ = c.ws.Close()
		}
	}
}
