// Package ws serves chat turns over WebSocket connections.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/mdossett204/adaptive-health-project/internal/adapter/identity"
	"github.com/mdossett204/adaptive-health-project/internal/config"
	"github.com/mdossett204/adaptive-health-project/internal/domain"
	"github.com/mdossett204/adaptive-health-project/internal/logger"
	"github.com/mdossett204/adaptive-health-project/internal/service"
)

// Server handles WebSocket connections.
type Server struct {
	cfg      *config.Config
	service  *service.Service
	verifier *identity.Verifier
	upgrader websocket.Upgrader

	mu          sync.Mutex
	connections map[string]*Connection
	closing     bool
	wg          sync.WaitGroup
}

// NewServer creates a new WebSocket server.
func NewServer(cfg *config.Config, svc *service.Service, verifier *identity.Verifier) *Server {
	return &Server{
		cfg:      cfg,
		service:  svc,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		connections: make(map[string]*Connection),
	}
}

// RegisterRoutes registers the WebSocket endpoint.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/chat", s.HandleWebSocket)
}

// HandleWebSocket handles WebSocket upgrade and connection lifecycle.
func (s *Server) HandleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("failed to upgrade websocket", "error", err)
		return err
	}

	conn := newConnection(ws)
	s.register(conn)

	ws.SetReadLimit(s.cfg.WSMaxMessageSize)

	go s.writePump(conn)
	go s.readPump(conn)

	return nil
}

// ConnectionCount returns the number of open connections.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}

// Shutdown closes every connection and waits for in-flight turns. Chat
// frames arriving afterwards are refused.
func (s *Server) Shutdown() {
	s.mu.Lock()
	s.closing = true
	conns := make([]*Connection, 0, len(s.connections))
	for _, conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
	s.wg.Wait()
}

func (s *Server) register(conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connections[conn.ID] = conn
	logger.Debug("websocket connection registered", "conn_id", conn.ID)
}

func (s *Server) unregister(conn *Connection) {
	s.mu.Lock()
	delete(s.connections, conn.ID)
	s.mu.Unlock()
	conn.closeSend()
	logger.Debug("websocket connection unregistered", "conn_id", conn.ID)
}

// readPump reads messages from the WebSocket connection.
func (s *Server) readPump(conn *Connection) {
	defer func() {
		s.unregister(conn)
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(s.cfg.WSReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", "conn_id", conn.ID, "error", err)
			}
			break
		}

		s.handleMessage(conn, message)
	}
}

// writePump writes messages to the WebSocket connection.
func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(s.cfg.WSPingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("websocket write failed", "conn_id", conn.ID, "error", err)
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(s.cfg.WSWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage dispatches incoming messages to appropriate handlers.
func (s *Server) handleMessage(conn *Connection, data []byte) {
	var base BaseMessage
	if err := json.Unmarshal(data, &base); err != nil {
		s.sendError(conn, base, ErrorCodeInvalidMessage, "invalid JSON message")
		return
	}

	switch base.Type {
	case TypeHello:
		s.handleHello(conn, data)
	case TypeChat:
		s.handleChat(conn, data)
	default:
		s.sendError(conn, base, ErrorCodeInvalidMessage, "unknown message type: "+base.Type)
	}
}

// handleHello verifies the bearer token and binds the identity.
func (s *Server) handleHello(conn *Connection, data []byte) {
	var msg HelloMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, BaseMessage{}, ErrorCodeInvalidMessage, "invalid hello message")
		return
	}

	id, err := s.verifier.Verify(msg.Token)
	if err != nil {
		s.sendError(conn, msg.BaseMessage, ErrorCodeUnauthorized, err.Error())
		return
	}
	conn.bind(id)

	conn.SendJSON(HelloAckMessage{
		BaseMessage: BaseMessage{Type: TypeHelloAck, Ts: time.Now().UnixMilli(), RequestID: msg.RequestID},
		UserID:      id.ID,
	})
	logger.Info("websocket hello completed", "conn_id", conn.ID, "user_id", id.ID)
}

// handleChat runs the turn off the read loop so pings keep flowing.
func (s *Server) handleChat(conn *Connection, data []byte) {
	var msg ChatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.sendError(conn, BaseMessage{}, ErrorCodeInvalidMessage, "invalid chat message")
		return
	}

	id := conn.Identity()
	if id == nil {
		s.sendError(conn, msg.BaseMessage, ErrorCodeSessionRequired, "must send hello first")
		return
	}

	req := domain.ChatRequest{
		Message:   msg.Message,
		UserID:    msg.UserID,
		SessionID: msg.SessionID,
		Model:     msg.Model,
	}
	if req.UserID == "" {
		req.UserID = id.ID
	}
	if req.UserID != id.ID {
		s.sendError(conn, msg.BaseMessage, ErrorCodeForbidden, "user_id does not match the authenticated user")
		return
	}

	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		s.sendError(conn, msg.BaseMessage, ErrorCodeShuttingDown, "server is shutting down")
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		ctx := context.Background()
		if s.cfg.ChatTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.ChatTimeout)
			defer cancel()
		}

		resp, err := s.service.Chat(ctx, req)
		base := BaseMessage{Ts: time.Now().UnixMilli(), RequestID: msg.RequestID, SessionID: req.SessionID}
		if err != nil {
			s.sendChatError(conn, base, err)
			return
		}

		base.Type = TypeChatResult
		if err := conn.SendJSON(ChatResultMessage{BaseMessage: base, Result: resp}); err != nil {
			logger.Warn("failed to deliver chat result", "conn_id", conn.ID, "session_id", req.SessionID, "error", err)
		}
	}()
}

func (s *Server) sendChatError(conn *Connection, base BaseMessage, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		s.sendError(conn, base, ErrorCodeValidationFailed, verr.Message)
		return
	}

	var limited *service.RateLimitedError
	if errors.As(err, &limited) {
		base.Type = TypeRateLimited
		conn.SendJSON(RateLimitedMessage{
			BaseMessage: base,
			RateLimitedResponse: domain.RateLimitedResponse{
				Error:              limited.Error(),
				RemainingHours:     limited.RemainingHours,
				RemainingMinutes:   limited.RemainingMinutes,
				ConversationLength: limited.ConversationLength,
				ExpiresAt:          limited.ExpiresAt,
			},
		})
		return
	}

	s.sendError(conn, base, ErrorCodeInternalError, service.ErrInternal.Error())
}

// sendError sends an error message to a connection.
func (s *Server) sendError(conn *Connection, base BaseMessage, code, message string) {
	conn.SendJSON(ErrorMessage{
		BaseMessage: BaseMessage{
			Type:      TypeError,
			Ts:        time.Now().UnixMilli(),
			RequestID: base.RequestID,
			SessionID: base.SessionID,
		},
		Code:    code,
		Message: message,
	})
}
