package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"tradecore/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocketSink fans out every audit event to all currently connected
// dashboard clients. A client that cannot keep up is disconnected rather
// than allowed to block delivery to the rest.
type WebSocketSink struct {
	log     *logrus.Entry
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewWebSocketSink builds an empty hub.
func NewWebSocketSink() *WebSocketSink {
	return &WebSocketSink{
		log:     logger.Component("audit.websocket"),
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleWebSocket upgrades r and registers the resulting connection as an
// audit stream subscriber. It blocks, running a read loop whose sole
// purpose is detecting client disconnects, until the connection closes.
func (s *WebSocketSink) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("websocket upgrade failed: %v", err)
		return
	}
	s.register(conn)
	defer s.unregister(conn)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	stop := make(chan struct{})
	go s.pinger(conn, stop)
	defer close(stop)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *WebSocketSink) pinger(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// Write sends under s.mu too, so pings never race a broadcast.
			s.mu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			s.mu.Unlock()
			if err != nil {
				return
			}
		case <-stop:
			return
		}
	}
}

func (s *WebSocketSink) register(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[conn] = true
}

func (s *WebSocketSink) unregister(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		_ = conn.Close()
	}
}

// Write broadcasts event as JSON to every connected client. It never
// returns an error for per-client send failures; those clients are simply
// dropped, since one slow dashboard must not affect audit delivery.
func (s *WebSocketSink) Write(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(s.clients, conn)
			_ = conn.Close()
		}
	}
	return nil
}
