package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/opendid-docs/docroutes/pkg/middleware"
	"github.com/opendid-docs/docroutes/pkg/routepath"
	"github.com/opendid-docs/docroutes/pkg/router"
)

// ResolveRequest is a client message on the resolve channel.
type ResolveRequest struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// ResolveResponse answers one ResolveRequest. Exactly one of Route and
// Error is set.
type ResolveResponse struct {
	ID    string                `json:"id"`
	Route *router.ResolvedRoute `json:"route,omitempty"`
	Error string                `json:"error,omitempty"`
}

// wsConn serializes writes; gorilla connections allow one concurrent writer.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	timeout time.Duration
}

func (c *wsConn) writeJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) writeControl(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(messageType, data, time.Now().Add(c.timeout))
}

// HandleWebSocket upgrades the request and serves resolve messages until
// the client disconnects or the server shuts down.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.conns.Add(1)
	defer s.conns.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	if s.metrics != nil {
		s.metrics.WebSocketOpened()
		defer s.metrics.WebSocketClosed()
	}

	cfg := s.config.WebSocket
	c := &wsConn{conn: conn, timeout: cfg.WriteTimeout}
	logger := s.logger.With("request_id", RequestIDFromContext(r.Context()))
	logger.Debug("websocket connected", "remote", r.RemoteAddr)

	conn.SetReadLimit(cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(c, done)

	for {
		var req ResolveRequest
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", "error", err)
			}
			conn.Close()
			return
		}
		conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		resp := s.resolveMessage(msg, &req)
		if s.metrics != nil {
			outcome := middleware.OutcomeOK
			if resp.Error != "" {
				outcome = middleware.OutcomeError
			}
			s.metrics.WebSocketMessage(outcome)
		}
		if err := c.writeJSON(resp); err != nil {
			logger.Warn("websocket write error", "error", err)
			conn.Close()
			return
		}
	}
}

// resolveMessage decodes one message and resolves its path.
func (s *Server) resolveMessage(msg []byte, req *ResolveRequest) ResolveResponse {
	if err := json.Unmarshal(msg, req); err != nil {
		return ResolveResponse{Error: "invalid message: " + err.Error()}
	}

	result, err := routepath.Normalize(req.Path)
	if err != nil {
		return ResolveResponse{ID: req.ID, Error: err.Error()}
	}

	route := s.state.Load().resolver.Resolve(result.Path)
	return ResolveResponse{ID: req.ID, Route: &route}
}

// pingLoop keeps the connection alive and closes it on server shutdown.
func (s *Server) pingLoop(c *wsConn, done <-chan struct{}) {
	ticker := time.NewTicker(s.config.WebSocket.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.writeControl(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.closing:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
			_ = c.writeControl(websocket.CloseMessage, msg)
			c.conn.Close()
			return

		case <-done:
			return
		}
	}
}
