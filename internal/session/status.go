package session

import (
	"context"
	"errors"
	"time"

	"github.com/lox/sleuth/internal/deck"
	"github.com/lox/sleuth/internal/room"
)

// Snapshot is what a status read returns. Solution and Results are set only
// once the room has finished.
type Snapshot struct {
	Code         string
	Players      []string
	Status       room.Status
	GuessCount   int
	TotalPlayers int
	AllGuessed   bool
	Solution     *deck.Solution
	Results      []room.Result
	CreatedAt    time.Time
}

// Status returns the room snapshot. When the room is playing and every
// player has guessed, this read finishes the room and reveals the solution;
// later reads return the same stored results.
func (m *Manager) Status(ctx context.Context, code string) (Snapshot, error) {
	code, err := m.normalizeCode(code)
	if err != nil {
		return Snapshot{}, err
	}

	resolved := false
	r, err := m.store.Update(ctx, code, func(r *room.Room) error {
		if !r.Resolve() {
			return errUnchanged
		}
		resolved = true
		return nil
	})
	if err != nil && !errors.Is(err, errUnchanged) {
		return Snapshot{}, err
	}

	if resolved {
		correct := 0
		for _, res := range r.Results {
			if res.Correct {
				correct++
			}
		}
		m.logger.Info("Room finished", "room", code, "players", len(r.Players), "correct", correct)
	}

	return snapshotOf(r), nil
}

func snapshotOf(r *room.Room) Snapshot {
	s := Snapshot{
		Code:         r.Code,
		Players:      r.PlayerNames(),
		Status:       r.Status,
		GuessCount:   len(r.Guesses),
		TotalPlayers: len(r.Players),
		AllGuessed:   r.Status != room.StatusWaiting && r.AllGuessed(),
		CreatedAt:    r.CreatedAt,
	}
	if r.Finished() {
		solution := r.Solution
		s.Solution = &solution
		s.Results = append([]room.Result(nil), r.Results...)
	}
	return s
}

// Summary is the operator view of a room. It carries no secrets.
type Summary struct {
	Code      string
	Status    room.Status
	Players   int
	CreatedAt time.Time
}

// Rooms lists every stored room.
func (m *Manager) Rooms(ctx context.Context) ([]Summary, error) {
	rooms, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, len(rooms))
	for i, r := range rooms {
		out[i] = Summary{Code: r.Code, Status: r.Status, Players: len(r.Players), CreatedAt: r.CreatedAt}
	}
	return out, nil
}
