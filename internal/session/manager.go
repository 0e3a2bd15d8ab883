// Package session implements the room operations players call: create, join,
// start, guess and status, plus the read-only hand, catalog and room listing.
//
// Every mutating operation runs inside store.Update, so it observes and
// replaces a room without any other operation on that room interleaving.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/lox/sleuth/internal/deck"
	"github.com/lox/sleuth/internal/gameerr"
	"github.com/lox/sleuth/internal/room"
	"github.com/lox/sleuth/internal/roomcode"
	"github.com/lox/sleuth/internal/store"
)

// DefaultCodeAttempts bounds room-code re-rolls on collision.
const DefaultCodeAttempts = 32

// errUnchanged aborts a store update that has nothing to write.
var errUnchanged = errors.New("room unchanged")

// Manager runs session operations against a room store.
type Manager struct {
	store        store.Store
	dealer       *deck.Dealer
	codes        *roomcode.Generator
	clock        quartz.Clock
	logger       *log.Logger
	codeAttempts int
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock sets the clock used for creation, join and guess timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithCodeAttempts sets how many codes CreateRoom tries before giving up.
func WithCodeAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.codeAttempts = n
		}
	}
}

// NewManager wires a Manager.
func NewManager(st store.Store, dealer *deck.Dealer, codes *roomcode.Generator, logger *log.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:        st,
		dealer:       dealer,
		codes:        codes,
		clock:        quartz.NewReal(),
		logger:       logger.WithPrefix("session"),
		codeAttempts: DefaultCodeAttempts,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) now() time.Time {
	return m.clock.Now().UTC()
}

// Created is the result of CreateRoom.
type Created struct {
	Code       string
	PlayerName string
	Hand       deck.Hand
}

// CreateRoom opens a room for playerName with a fresh solution and a
// one-player deal.
func (m *Manager) CreateRoom(ctx context.Context, playerName string) (Created, error) {
	if err := room.ValidateName(playerName); err != nil {
		return Created{}, err
	}

	solution, err := m.dealer.ChooseSolution()
	if err != nil {
		return Created{}, err
	}

	for attempt := 1; attempt <= m.codeAttempts; attempt++ {
		code := m.codes.Generate()

		taken, err := m.store.Exists(ctx, code)
		if err != nil {
			return Created{}, fmt.Errorf("check room code: %w", err)
		}
		if taken {
			m.logger.Debug("Room code collision", "code", code, "attempt", attempt)
			continue
		}

		r, err := room.New(code, playerName, solution, m.dealer, m.now())
		if err != nil {
			return Created{}, err
		}

		err = m.store.Create(ctx, r)
		if errors.Is(err, store.ErrCodeTaken) {
			m.logger.Debug("Room code taken during create", "code", code, "attempt", attempt)
			continue
		}
		if err != nil {
			return Created{}, fmt.Errorf("store room: %w", err)
		}

		m.logger.Info("Room created", "room", code, "player", playerName)
		return Created{Code: code, PlayerName: playerName, Hand: r.Hands[0]}, nil
	}

	return Created{}, fmt.Errorf("no free room code after %d attempts", m.codeAttempts)
}

// Joined is the result of JoinRoom.
type Joined struct {
	Code       string
	PlayerName string
	Hand       deck.Hand
	Players    []string
}

// JoinRoom adds playerName to a waiting room. Every player's hand is redealt.
func (m *Manager) JoinRoom(ctx context.Context, code, playerName string) (Joined, error) {
	code, err := m.normalizeCode(code)
	if err != nil {
		return Joined{}, err
	}
	if err := room.ValidateName(playerName); err != nil {
		return Joined{}, err
	}

	r, err := m.store.Update(ctx, code, func(r *room.Room) error {
		return r.Join(playerName, m.dealer, m.now())
	})
	if err != nil {
		m.logger.Debug("Join rejected", "room", code, "player", playerName, "error", err)
		return Joined{}, err
	}

	hand, err := r.HandOf(playerName)
	if err != nil {
		return Joined{}, err
	}

	m.logger.Info("Player joined", "room", code, "player", playerName, "players", len(r.Players))
	return Joined{Code: code, PlayerName: playerName, Hand: hand, Players: r.PlayerNames()}, nil
}

// Started is the result of StartGame.
type Started struct {
	Code    string
	Players []string
	Status  room.Status
}

// StartGame moves a waiting room with at least two players to playing.
func (m *Manager) StartGame(ctx context.Context, code string) (Started, error) {
	code, err := m.normalizeCode(code)
	if err != nil {
		return Started{}, err
	}

	r, err := m.store.Update(ctx, code, func(r *room.Room) error {
		return r.Start()
	})
	if err != nil {
		m.logger.Debug("Start rejected", "room", code, "error", err)
		return Started{}, err
	}

	m.logger.Info("Game started", "room", code, "players", len(r.Players))
	return Started{Code: code, Players: r.PlayerNames(), Status: r.Status}, nil
}

// SubmitGuess records playerName's single guess.
func (m *Manager) SubmitGuess(ctx context.Context, code, playerName string, guess room.Guess) error {
	if err := guess.Validate(); err != nil {
		return err
	}
	code, err := m.normalizeCode(code)
	if err != nil {
		return err
	}
	if err := room.ValidateName(playerName); err != nil {
		return err
	}

	r, err := m.store.Update(ctx, code, func(r *room.Room) error {
		return r.SubmitGuess(playerName, guess, m.now())
	})
	if err != nil {
		m.logger.Debug("Guess rejected", "room", code, "player", playerName, "error", err)
		return err
	}

	m.logger.Info("Guess recorded", "room", code, "player", playerName,
		"guesses", len(r.Guesses), "players", len(r.Players))
	return nil
}

// Hand returns playerName's current hand. Hands change on every join until
// the game starts.
func (m *Manager) Hand(ctx context.Context, code, playerName string) (deck.Hand, error) {
	code, err := m.normalizeCode(code)
	if err != nil {
		return nil, err
	}
	if err := room.ValidateName(playerName); err != nil {
		return nil, err
	}
	r, err := m.store.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	return r.HandOf(playerName)
}

// Catalog returns the card lists rooms are dealt from.
func (m *Manager) Catalog() deck.Catalog {
	return m.dealer.Catalog()
}

func (m *Manager) normalizeCode(code string) (string, error) {
	code = roomcode.Normalize(code)
	if code == "" {
		return "", fmt.Errorf("%w: room code is required", gameerr.ErrInvalidInput)
	}
	if err := roomcode.Validate(code); err != nil {
		return "", fmt.Errorf("%w: room %s (%v)", gameerr.ErrNotFound, code, err)
	}
	return code, nil
}
