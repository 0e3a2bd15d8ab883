// Package room holds the room aggregate and its lifecycle rules.
//
// A Room moves waiting -> playing -> finished. Joins happen only while
// waiting and each one redeals every hand; guesses happen only while playing;
// the move to finished is made by Resolve once every player has guessed.
// Every mutating method validates fully before it changes anything, so a
// returned error always leaves the Room as it was.
package room

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/lox/sleuth/internal/deck"
	"github.com/lox/sleuth/internal/gameerr"
)

const (
	// MaxPlayers is the fixed room capacity.
	MaxPlayers = 6
	// MinPlayers is the smallest roster that can start a game.
	MinPlayers = 2
	// MaxNameLength bounds player names in bytes.
	MaxNameLength = 32
)

// Status is a room's lifecycle state.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Dealer deals a full set of hands for a roster size. *deck.Dealer
// implements it.
type Dealer interface {
	Deal(solution deck.Solution, players int) ([]deck.Hand, error)
}

// Player is a room member. Names are unique within a room, compared exactly.
type Player struct {
	Name     string
	JoinedAt time.Time
}

// Room is one play session.
type Room struct {
	Code     string
	Solution deck.Solution
	Status   Status

	// Players are in join order; Hands[i] belongs to Players[i].
	Players []Player
	Hands   []deck.Hand

	// Guesses is append-only, in submission order.
	Guesses []GuessRecord

	// Results is set once, when the room finishes.
	Results []Result

	CreatedAt time.Time
}

// ValidateName checks a player name for emptiness and length.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: player name is required", gameerr.ErrInvalidInput)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: player name longer than %d bytes", gameerr.ErrInvalidInput, MaxNameLength)
	}
	return nil
}

// New creates a waiting room holding creator and a one-player deal.
func New(code, creator string, solution deck.Solution, dealer Dealer, now time.Time) (*Room, error) {
	if err := ValidateName(creator); err != nil {
		return nil, err
	}
	hands, err := dealer.Deal(solution, 1)
	if err != nil {
		return nil, err
	}

	return &Room{
		Code:      code,
		Solution:  solution,
		Status:    StatusWaiting,
		Players:   []Player{{Name: creator, JoinedAt: now}},
		Hands:     hands,
		CreatedAt: now,
	}, nil
}

// Join adds name to a waiting room and redeals every hand for the new roster
// size. Hands dealt before the join are discarded.
func (r *Room) Join(name string, dealer Dealer, now time.Time) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if r.Status != StatusWaiting {
		return fmt.Errorf("%w: room %s is %s, not accepting players", gameerr.ErrInvalidState, r.Code, r.Status)
	}
	if r.PlayerIndex(name) >= 0 {
		return fmt.Errorf("%w: player %q already in room %s", gameerr.ErrConflict, name, r.Code)
	}
	if len(r.Players) >= MaxPlayers {
		return fmt.Errorf("%w: room %s is full (%d players)", gameerr.ErrConflict, r.Code, MaxPlayers)
	}

	hands, err := dealer.Deal(r.Solution, len(r.Players)+1)
	if err != nil {
		return err
	}

	r.Players = append(r.Players, Player{Name: name, JoinedAt: now})
	r.Hands = hands
	return nil
}

// Start moves a waiting room with enough players to playing. It is
// irreversible.
func (r *Room) Start() error {
	if r.Status != StatusWaiting {
		return fmt.Errorf("%w: room %s already %s", gameerr.ErrInvalidState, r.Code, r.Status)
	}
	if len(r.Players) < MinPlayers {
		return fmt.Errorf("%w: need at least %d players to start, have %d", gameerr.ErrInvalidInput, MinPlayers, len(r.Players))
	}

	r.Status = StatusPlaying
	return nil
}

// SubmitGuess records name's one guess. Guess values are not checked against
// the catalog.
func (r *Room) SubmitGuess(name string, guess Guess, now time.Time) error {
	if err := guess.Validate(); err != nil {
		return err
	}
	if r.Status != StatusPlaying {
		return fmt.Errorf("%w: room %s is %s, not accepting guesses", gameerr.ErrInvalidState, r.Code, r.Status)
	}
	if r.PlayerIndex(name) < 0 {
		return fmt.Errorf("%w: player %q is not in room %s", gameerr.ErrNotFound, name, r.Code)
	}
	if r.HasGuessed(name) {
		return fmt.Errorf("%w: player %q has already guessed", gameerr.ErrConflict, name)
	}

	r.Guesses = append(r.Guesses, GuessRecord{
		Player:      name,
		Guess:       guess,
		SubmittedAt: now,
	})
	return nil
}

// PlayerIndex returns name's join position, or -1.
func (r *Room) PlayerIndex(name string) int {
	return slices.IndexFunc(r.Players, func(p Player) bool { return p.Name == name })
}

// PlayerNames lists members in join order.
func (r *Room) PlayerNames() []string {
	names := make([]string, len(r.Players))
	for i, p := range r.Players {
		names[i] = p.Name
	}
	return names
}

// HandOf returns the current hand of name.
func (r *Room) HandOf(name string) (deck.Hand, error) {
	i := r.PlayerIndex(name)
	if i < 0 || i >= len(r.Hands) {
		return nil, fmt.Errorf("%w: player %q is not in room %s", gameerr.ErrNotFound, name, r.Code)
	}
	return slices.Clone(r.Hands[i]), nil
}

// HasGuessed reports whether name has a recorded guess.
func (r *Room) HasGuessed(name string) bool {
	return slices.ContainsFunc(r.Guesses, func(g GuessRecord) bool { return g.Player == name })
}

// AllGuessed reports whether every player has exactly one guess on record.
func (r *Room) AllGuessed() bool {
	return len(r.Players) > 0 && len(r.Guesses) == len(r.Players)
}

// Clone returns a deep copy that shares no slices with r.
func (r *Room) Clone() *Room {
	c := *r
	c.Players = slices.Clone(r.Players)
	c.Guesses = slices.Clone(r.Guesses)
	c.Results = slices.Clone(r.Results)
	if r.Hands != nil {
		c.Hands = make([]deck.Hand, len(r.Hands))
		for i, h := range r.Hands {
			c.Hands[i] = slices.Clone(h)
		}
	}
	return &c
}
