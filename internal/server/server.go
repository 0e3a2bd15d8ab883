package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/websocket"

	"github.com/lox/sleuth/internal/session"
)

// Server exposes session operations over HTTP and a websocket endpoint.
type Server struct {
	sessions       *session.Manager
	logger         *log.Logger
	upgrader       websocket.Upgrader
	allowedOrigins []string

	mu         sync.Mutex
	httpServer *http.Server
	closed     bool
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins restricts CORS and websocket origins. The default allows
// any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// NewServer creates a server backed by sessions.
func NewServer(sessions *session.Manager, logger *log.Logger, opts ...Option) *Server {
	s := &Server{
		sessions:       sessions,
		logger:         logger.WithPrefix("server"),
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the routed handler with request IDs, CORS and panic
// recovery applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("POST /api/game/create-room", s.handleCreateRoom)
	mux.HandleFunc("POST /api/game/join-room", s.handleJoinRoom)
	mux.HandleFunc("POST /api/game/start-game", s.handleStartGame)
	mux.HandleFunc("POST /api/game/make-guess", s.handleMakeGuess)
	mux.HandleFunc("GET /api/game/game-status/{code}", s.handleGameStatus)
	mux.HandleFunc("GET /api/game/hand/{code}/{player}", s.handleHand)
	mux.HandleFunc("GET /api/game/game-data", s.handleGameData)
	mux.HandleFunc("GET /api/rooms", s.handleRooms)

	cors := handlers.CORS(
		handlers.AllowedOrigins(s.allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", requestIDHeader}),
		handlers.ExposedHeaders([]string{requestIDHeader}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(true),
	)

	return recovery(cors(s.withRequestID(mux)))
}

// Start listens on addr and serves until Shutdown.
func (s *Server) Start(addr string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return http.ErrServerClosed
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = srv
	s.mu.Unlock()

	s.logger.Info("Listening", "addr", addr)
	return srv.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	srv := s.httpServer
	s.mu.Unlock()

	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "OK")
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.allowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// recoveryLogger adapts charmbracelet/log to gorilla/handlers.
type recoveryLogger struct {
	logger *log.Logger
}

func (l recoveryLogger) Println(v ...any) {
	l.logger.Error("Recovered from panic", "panic", fmt.Sprint(v...))
}
