package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lox/sleuth/internal/gameerr"
	"github.com/lox/sleuth/internal/protocol"
)

// maxBodySize caps request bodies; every payload is a few short strings.
const maxBodySize = 8192

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateRoomRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.createRoom(r.Context(), req)
	s.respond(w, r, http.StatusOK, resp, err)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req protocol.JoinRoomRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.joinRoom(r.Context(), req)
	s.respond(w, r, http.StatusOK, resp, err)
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req protocol.StartGameRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.startGame(r.Context(), req)
	s.respond(w, r, http.StatusOK, resp, err)
}

func (s *Server) handleMakeGuess(w http.ResponseWriter, r *http.Request) {
	var req protocol.MakeGuessRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.makeGuess(r.Context(), req)
	s.respond(w, r, http.StatusOK, resp, err)
}

func (s *Server) handleGameStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := s.gameStatus(r.Context(), protocol.GameStatusRequest{RoomCode: r.PathValue("code")})
	s.respond(w, r, http.StatusOK, resp, err)
}

func (s *Server) handleHand(w http.ResponseWriter, r *http.Request) {
	resp, err := s.hand(r.Context(), protocol.HandRequest{
		RoomCode:   r.PathValue("code"),
		PlayerName: r.PathValue("player"),
	})
	s.respond(w, r, http.StatusOK, resp, err)
}

func (s *Server) handleGameData(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, http.StatusOK, s.gameData(), nil)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request) {
	resp, err := s.rooms(r.Context())
	s.respond(w, r, http.StatusOK, resp, err)
}

// decode reads a JSON request body into v, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("request body is empty")
		}
		s.respond(w, r, 0, nil, fmt.Errorf("%w: invalid JSON body: %v", gameerr.ErrInvalidInput, err))
		return false
	}
	return true
}

// respond writes v with status, or the error body if err is non-nil.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		kind := gameerr.KindOf(err)
		status = statusFor(kind)
		msg := err.Error()
		if kind == gameerr.KindInternal {
			s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestID(r.Context()), "error", err)
			msg = "internal server error"
		} else {
			s.logger.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "request_id", requestID(r.Context()), "code", kind, "error", err)
		}
		v = protocol.ErrorResponse{Error: msg, Code: kind}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Warn("Failed to write response", "request_id", requestID(r.Context()), "error", encErr)
	}
}

// statusFor maps a gameerr kind to an HTTP status.
func statusFor(kind string) int {
	switch kind {
	case gameerr.KindInvalidInput:
		return http.StatusBadRequest
	case gameerr.KindNotFound:
		return http.StatusNotFound
	case gameerr.KindConflict, gameerr.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
