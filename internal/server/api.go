package server

import (
	"context"
	"fmt"

	"github.com/lox/sleuth/internal/deck"
	"github.com/lox/sleuth/internal/gameerr"
	"github.com/lox/sleuth/internal/protocol"
	"github.com/lox/sleuth/internal/room"
	"github.com/lox/sleuth/internal/roomcode"
	"github.com/lox/sleuth/internal/session"
)

// The methods below translate wire payloads to session calls. HTTP handlers
// and the websocket dispatcher both go through them so the two transports
// cannot drift.

func (s *Server) createRoom(ctx context.Context, req protocol.CreateRoomRequest) (protocol.CreateRoomResponse, error) {
	created, err := s.sessions.CreateRoom(ctx, req.PlayerName)
	if err != nil {
		return protocol.CreateRoomResponse{}, err
	}
	return protocol.CreateRoomResponse{
		RoomCode:   created.Code,
		PlayerName: created.PlayerName,
		Cards:      created.Hand.Strings(),
	}, nil
}

func (s *Server) joinRoom(ctx context.Context, req protocol.JoinRoomRequest) (protocol.JoinRoomResponse, error) {
	joined, err := s.sessions.JoinRoom(ctx, req.RoomCode, req.PlayerName)
	if err != nil {
		return protocol.JoinRoomResponse{}, err
	}
	return protocol.JoinRoomResponse{
		RoomCode:   joined.Code,
		PlayerName: joined.PlayerName,
		Cards:      joined.Hand.Strings(),
		Players:    joined.Players,
	}, nil
}

func (s *Server) startGame(ctx context.Context, req protocol.StartGameRequest) (protocol.StartGameResponse, error) {
	started, err := s.sessions.StartGame(ctx, req.RoomCode)
	if err != nil {
		return protocol.StartGameResponse{}, err
	}
	return protocol.StartGameResponse{
		Message: "Game started",
		Players: started.Players,
		Status:  string(started.Status),
	}, nil
}

func (s *Server) makeGuess(ctx context.Context, req protocol.MakeGuessRequest) (protocol.MakeGuessResponse, error) {
	if req.Guess == nil {
		return protocol.MakeGuessResponse{}, fmt.Errorf("%w: guess is required", gameerr.ErrInvalidInput)
	}
	guess := room.Guess{
		Suspect:  deck.Card(req.Guess.Suspect),
		Location: deck.Card(req.Guess.Location),
		Weapon:   deck.Card(req.Guess.Weapon),
	}
	if err := s.sessions.SubmitGuess(ctx, req.RoomCode, req.PlayerName, guess); err != nil {
		return protocol.MakeGuessResponse{}, err
	}
	return protocol.MakeGuessResponse{Message: "Guess submitted"}, nil
}

func (s *Server) gameStatus(ctx context.Context, req protocol.GameStatusRequest) (protocol.GameStatusResponse, error) {
	snap, err := s.sessions.Status(ctx, req.RoomCode)
	if err != nil {
		return protocol.GameStatusResponse{}, err
	}
	return statusResponse(snap), nil
}

func (s *Server) hand(ctx context.Context, req protocol.HandRequest) (protocol.HandResponse, error) {
	h, err := s.sessions.Hand(ctx, req.RoomCode, req.PlayerName)
	if err != nil {
		return protocol.HandResponse{}, err
	}
	return protocol.HandResponse{
		RoomCode:   roomcode.Normalize(req.RoomCode),
		PlayerName: req.PlayerName,
		Cards:      h.Strings(),
	}, nil
}

func (s *Server) gameData() protocol.GameDataResponse {
	catalog := s.sessions.Catalog()
	return protocol.GameDataResponse{
		Suspects:  cardStrings(catalog.Suspects),
		Locations: cardStrings(catalog.Locations),
		Weapons:   cardStrings(catalog.Weapons),
	}
}

func (s *Server) rooms(ctx context.Context) ([]protocol.RoomSummary, error) {
	summaries, err := s.sessions.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]protocol.RoomSummary, len(summaries))
	for i, sum := range summaries {
		out[i] = protocol.RoomSummary{
			RoomCode:     sum.Code,
			Status:       string(sum.Status),
			TotalPlayers: sum.Players,
			CreatedAt:    sum.CreatedAt,
		}
	}
	return out, nil
}

func statusResponse(snap session.Snapshot) protocol.GameStatusResponse {
	resp := protocol.GameStatusResponse{
		RoomCode:     snap.Code,
		Players:      snap.Players,
		Status:       string(snap.Status),
		GuessesCount: snap.GuessCount,
		TotalPlayers: snap.TotalPlayers,
		AllGuessed:   snap.AllGuessed,
		CreatedAt:    snap.CreatedAt,
	}
	if snap.Solution != nil {
		resp.Solution = &protocol.Triple{
			Suspect:  string(snap.Solution.Suspect),
			Location: string(snap.Solution.Location),
			Weapon:   string(snap.Solution.Weapon),
		}
	}
	for _, r := range snap.Results {
		resp.Results = append(resp.Results, protocol.Result{
			Player: r.Player,
			Guess: protocol.Triple{
				Suspect:  string(r.Guess.Suspect),
				Location: string(r.Guess.Location),
				Weapon:   string(r.Guess.Weapon),
			},
			Correct: r.Correct,
		})
	}
	return resp
}

func cardStrings(cards []deck.Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = string(c)
	}
	return out
}
