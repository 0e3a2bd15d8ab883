package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/lox/sleuth/internal/gameerr"
	"github.com/lox/sleuth/internal/protocol"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = maxBodySize

	sendBuffer = 16
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection serves request/reply envelopes for one websocket client.
// Requests are handled in arrival order and each gets exactly one reply.
type Connection struct {
	conn      *websocket.Conn
	send      chan *protocol.Envelope
	server    *Server
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newConnection(conn *websocket.Conn, s *Server, id string) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan *protocol.Envelope, sendBuffer),
		server: s,
		logger: s.logger.With("conn", id),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "error", err)
		return
	}

	c := newConnection(conn, s, requestID(r.Context()))
	c.logger.Debug("WebSocket connected", "remote", r.RemoteAddr)
	c.Start()
}

// Start begins handling the connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection. The write pump sends a close frame on its way
// out.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
	})
	return nil
}

// reply queues env for the write pump.
func (c *Connection) reply(env *protocol.Envelope) error {
	select {
	case c.send <- env:
		return nil
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket read error", "error", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var reply *protocol.Envelope
		var env protocol.Envelope
		if err := json.Unmarshal(frame, &env); err != nil {
			c.logger.Debug("Malformed envelope", "error", err)
			reply = c.errorEnvelope(&protocol.Envelope{RequestID: uuid.NewString()},
				fmt.Errorf("%w: malformed envelope: %v", gameerr.ErrInvalidInput, err))
		} else {
			reply = c.handleMessage(&env)
		}

		if err := c.reply(reply); err != nil {
			return
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case env := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				c.logger.Warn("Failed to write message", "error", err)
				_ = c.Close()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.Close()
				return
			}

		case <-c.ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// handleMessage runs one request and builds its reply envelope.
func (c *Connection) handleMessage(env *protocol.Envelope) *protocol.Envelope {
	if env.RequestID == "" {
		env.RequestID = uuid.NewString()
	}
	c.logger.Debug("Received message", "type", env.Type, "request_id", env.RequestID)

	result, err := c.dispatch(env)
	if err == nil {
		var reply *protocol.Envelope
		reply, err = protocol.NewEnvelope(protocol.ResultType(env.Type), env.RequestID, result)
		if err == nil {
			return reply
		}
	}
	return c.errorEnvelope(env, err)
}

func (c *Connection) dispatch(env *protocol.Envelope) (any, error) {
	req, ok := protocol.NewRequest(env.Type)
	if !ok {
		return nil, fmt.Errorf("%w: unknown message type %q", gameerr.ErrInvalidInput, env.Type)
	}
	if err := env.DecodeData(req); err != nil {
		return nil, fmt.Errorf("%w: %v", gameerr.ErrInvalidInput, err)
	}

	s := c.server
	switch req := req.(type) {
	case *protocol.CreateRoomRequest:
		return s.createRoom(c.ctx, *req)
	case *protocol.JoinRoomRequest:
		return s.joinRoom(c.ctx, *req)
	case *protocol.StartGameRequest:
		return s.startGame(c.ctx, *req)
	case *protocol.MakeGuessRequest:
		return s.makeGuess(c.ctx, *req)
	case *protocol.GameStatusRequest:
		return s.gameStatus(c.ctx, *req)
	case *protocol.HandRequest:
		return s.hand(c.ctx, *req)
	default:
		return s.gameData(), nil
	}
}

func (c *Connection) errorEnvelope(env *protocol.Envelope, err error) *protocol.Envelope {
	kind := gameerr.KindOf(err)
	msg := err.Error()
	if kind == gameerr.KindInternal {
		c.logger.Error("Request failed", "type", env.Type, "request_id", env.RequestID, "error", err)
		msg = "internal server error"
	}

	// ErrorResponse always encodes.
	reply, _ := protocol.NewEnvelope(protocol.TypeError, env.RequestID, protocol.ErrorResponse{Error: msg, Code: kind})
	return reply
}
