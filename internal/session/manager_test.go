package session

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/sleuth/internal/deck"
	"github.com/lox/sleuth/internal/gameerr"
	"github.com/lox/sleuth/internal/randutil"
	"github.com/lox/sleuth/internal/room"
	"github.com/lox/sleuth/internal/roomcode"
	"github.com/lox/sleuth/internal/store"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

type fixture struct {
	mgr   *Manager
	store *store.MemoryStore
	clock *quartz.Mock
}

func newFixture(t *testing.T, catalog deck.Catalog, seed int64) fixture {
	t.Helper()
	rng := randutil.NewLocked(randutil.New(seed))
	dealer, err := deck.NewDealer(catalog, rng)
	require.NoError(t, err)

	st := store.NewMemoryStore()
	clock := quartz.NewMock(t)
	mgr := NewManager(st, dealer, roomcode.NewGenerator(rng), testLogger(), WithClock(clock))
	return fixture{mgr: mgr, store: st, clock: clock}
}

func solutionGuess(s deck.Solution) room.Guess {
	return room.Guess{Suspect: s.Suspect, Location: s.Location, Weapon: s.Weapon}
}

func TestScenarioFullGame(t *testing.T) {
	t.Parallel()
	f := newFixture(t, deck.DefaultCatalog(), 1)
	ctx := context.Background()

	created, err := f.mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)
	require.NoError(t, roomcode.Validate(created.Code))
	assert.Len(t, created.Hand, deck.DefaultCatalog().Size()-3)

	joined, err := f.mgr.JoinRoom(ctx, created.Code, "Bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana", "Bob"}, joined.Players)

	started, err := f.mgr.StartGame(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, room.StatusPlaying, started.Status)

	guess := room.Guess{Suspect: "Professor Plum", Location: "Library", Weapon: "Candlestick"}
	require.NoError(t, f.mgr.SubmitGuess(ctx, created.Code, "Ana", guess))

	mid, err := f.mgr.Status(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, room.StatusPlaying, mid.Status)
	assert.Equal(t, 1, mid.GuessCount)
	assert.Nil(t, mid.Solution, "solution revealed early")

	require.NoError(t, f.mgr.SubmitGuess(ctx, created.Code, "Bob", guess))

	final, err := f.mgr.Status(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, room.StatusFinished, final.Status)
	assert.True(t, final.AllGuessed)
	require.NotNil(t, final.Solution)
	require.Len(t, final.Results, 2)

	want := guess.Matches(*final.Solution)
	for i, name := range []string{"Ana", "Bob"} {
		assert.Equal(t, name, final.Results[i].Player)
		assert.Equal(t, guess, final.Results[i].Guess)
		assert.Equal(t, want, final.Results[i].Correct)
	}

	again, err := f.mgr.Status(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, final, again)
}

func TestScenarioStartAlone(t *testing.T) {
	t.Parallel()
	f := newFixture(t, deck.DefaultCatalog(), 2)
	ctx := context.Background()

	created, err := f.mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)

	_, err = f.mgr.StartGame(ctx, created.Code)
	assert.ErrorIs(t, err, gameerr.ErrInvalidInput)

	snap, err := f.mgr.Status(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, room.StatusWaiting, snap.Status)
}

func TestScenarioTinyCatalog(t *testing.T) {
	t.Parallel()
	catalog := deck.Catalog{
		Suspects:  []deck.Card{"S1"},
		Locations: []deck.Card{"L1"},
		Weapons:   []deck.Card{"W1", "W2"},
	}
	f := newFixture(t, catalog, 3)
	ctx := context.Background()

	created, err := f.mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)
	require.Len(t, created.Hand, 1)

	r, err := f.store.Get(ctx, created.Code)
	require.NoError(t, err)
	assert.NotEqual(t, r.Solution.Weapon, created.Hand[0])
	assert.Contains(t, []deck.Card{"W1", "W2"}, created.Hand[0])
}

func TestCorrectGuessWins(t *testing.T) {
	t.Parallel()
	f := newFixture(t, deck.DefaultCatalog(), 4)
	ctx := context.Background()

	created, err := f.mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)
	_, err = f.mgr.JoinRoom(ctx, created.Code, "Bob")
	require.NoError(t, err)
	_, err = f.mgr.StartGame(ctx, created.Code)
	require.NoError(t, err)

	r, err := f.store.Get(ctx, created.Code)
	require.NoError(t, err)

	require.NoError(t, f.mgr.SubmitGuess(ctx, created.Code, "Bob", solutionGuess(r.Solution)))
	require.NoError(t, f.mgr.SubmitGuess(ctx, created.Code, "Ana", guessOf("x", "y", "z")))

	snap, err := f.mgr.Status(ctx, created.Code)
	require.NoError(t, err)
	require.Len(t, snap.Results, 2)
	assert.Equal(t, room.Result{Player: "Bob", Guess: solutionGuess(r.Solution), Correct: true}, snap.Results[0])
	assert.False(t, snap.Results[1].Correct)
	assert.Equal(t, r.Solution, *snap.Solution)
}

func TestGuessTimestampsUseClock(t *testing.T) {
	t.Parallel()
	f := newFixture(t, deck.DefaultCatalog(), 5)
	ctx := context.Background()

	created, err := f.mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)
	_, err = f.mgr.JoinRoom(ctx, created.Code, "Bob")
	require.NoError(t, err)
	_, err = f.mgr.StartGame(ctx, created.Code)
	require.NoError(t, err)

	f.clock.Advance(90 * time.Second)
	want := f.clock.Now().UTC()
	require.NoError(t, f.mgr.SubmitGuess(ctx, created.Code, "Ana", guessOf("a", "b", "c")))

	r, err := f.store.Get(ctx, created.Code)
	require.NoError(t, err)
	require.Len(t, r.Guesses, 1)
	assert.True(t, want.Equal(r.Guesses[0].SubmittedAt))
	assert.True(t, r.CreatedAt.Before(r.Guesses[0].SubmittedAt))
}

func TestOperationErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t, deck.DefaultCatalog(), 6)
	ctx := context.Background()

	created, err := f.mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)
	code := created.Code

	t.Run("create without name", func(t *testing.T) {
		_, err := f.mgr.CreateRoom(ctx, "")
		assert.ErrorIs(t, err, gameerr.ErrInvalidInput)
	})

	t.Run("join unknown room", func(t *testing.T) {
		_, err := f.mgr.JoinRoom(ctx, "ZZZZZZ", "Bob")
		assert.ErrorIs(t, err, gameerr.ErrNotFound)
	})

	t.Run("join malformed code", func(t *testing.T) {
		_, err := f.mgr.JoinRoom(ctx, "not-a-code", "Bob")
		assert.ErrorIs(t, err, gameerr.ErrNotFound)
	})

	t.Run("join without code", func(t *testing.T) {
		_, err := f.mgr.JoinRoom(ctx, "  ", "Bob")
		assert.ErrorIs(t, err, gameerr.ErrInvalidInput)
	})

	t.Run("join duplicate", func(t *testing.T) {
		_, err := f.mgr.JoinRoom(ctx, code, "Ana")
		assert.ErrorIs(t, err, gameerr.ErrConflict)
	})

	t.Run("code is case insensitive", func(t *testing.T) {
		joined, err := f.mgr.JoinRoom(ctx, " "+lower(code)+" ", "Bob")
		require.NoError(t, err)
		assert.Equal(t, code, joined.Code)
	})

	t.Run("guess before start", func(t *testing.T) {
		err := f.mgr.SubmitGuess(ctx, code, "Ana", guessOf("a", "b", "c"))
		assert.ErrorIs(t, err, gameerr.ErrInvalidState)
	})

	t.Run("malformed guess", func(t *testing.T) {
		err := f.mgr.SubmitGuess(ctx, code, "Ana", room.Guess{Suspect: "a"})
		assert.ErrorIs(t, err, gameerr.ErrInvalidInput)
	})

	t.Run("start unknown room", func(t *testing.T) {
		_, err := f.mgr.StartGame(ctx, "ZZZZZZ")
		assert.ErrorIs(t, err, gameerr.ErrNotFound)
	})

	t.Run("status unknown room", func(t *testing.T) {
		_, err := f.mgr.Status(ctx, "ZZZZZZ")
		assert.ErrorIs(t, err, gameerr.ErrNotFound)
	})

	t.Run("after start", func(t *testing.T) {
		_, err := f.mgr.StartGame(ctx, code)
		require.NoError(t, err)

		_, err = f.mgr.JoinRoom(ctx, code, "Cy")
		assert.ErrorIs(t, err, gameerr.ErrInvalidState)

		_, err = f.mgr.StartGame(ctx, code)
		assert.ErrorIs(t, err, gameerr.ErrInvalidState)

		err = f.mgr.SubmitGuess(ctx, code, "Eve", guessOf("a", "b", "c"))
		assert.ErrorIs(t, err, gameerr.ErrNotFound)

		err = f.mgr.SubmitGuess(ctx, code, "  ", guessOf("a", "b", "c"))
		assert.ErrorIs(t, err, gameerr.ErrInvalidInput)
		err = f.mgr.SubmitGuess(ctx, code, strings.Repeat("x", room.MaxNameLength+1), guessOf("a", "b", "c"))
		assert.ErrorIs(t, err, gameerr.ErrInvalidInput)

		_, err = f.mgr.Hand(ctx, code, "")
		assert.ErrorIs(t, err, gameerr.ErrInvalidInput)
		_, err = f.mgr.Hand(ctx, code, " \t")
		assert.ErrorIs(t, err, gameerr.ErrInvalidInput)
		_, err = f.mgr.Hand(ctx, code, "Eve")
		assert.ErrorIs(t, err, gameerr.ErrNotFound)

		require.NoError(t, f.mgr.SubmitGuess(ctx, code, "Ana", guessOf("a", "b", "c")))
		err = f.mgr.SubmitGuess(ctx, code, "Ana", guessOf("a", "b", "c"))
		assert.ErrorIs(t, err, gameerr.ErrConflict)
	})

	t.Run("finished room is read only", func(t *testing.T) {
		require.NoError(t, f.mgr.SubmitGuess(ctx, code, "Bob", guessOf("a", "b", "c")))
		snap, err := f.mgr.Status(ctx, code)
		require.NoError(t, err)
		require.Equal(t, room.StatusFinished, snap.Status)

		_, err = f.mgr.JoinRoom(ctx, code, "Cy")
		assert.ErrorIs(t, err, gameerr.ErrInvalidState)
		_, err = f.mgr.StartGame(ctx, code)
		assert.ErrorIs(t, err, gameerr.ErrInvalidState)
		err = f.mgr.SubmitGuess(ctx, code, "Ana", guessOf("a", "b", "c"))
		assert.ErrorIs(t, err, gameerr.ErrInvalidState)
	})
}

func TestSeventhJoinRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t, deck.DefaultCatalog(), 7)
	ctx := context.Background()

	created, err := f.mgr.CreateRoom(ctx, "P1")
	require.NoError(t, err)
	for _, name := range []string{"P2", "P3", "P4", "P5", "P6"} {
		_, err := f.mgr.JoinRoom(ctx, created.Code, name)
		require.NoError(t, err)
	}

	_, err = f.mgr.JoinRoom(ctx, created.Code, "P7")
	assert.ErrorIs(t, err, gameerr.ErrConflict)

	snap, err := f.mgr.Status(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, 6, snap.TotalPlayers)
}

func TestJoinRedealsAndHandLookup(t *testing.T) {
	t.Parallel()
	f := newFixture(t, deck.DefaultCatalog(), 8)
	ctx := context.Background()
	deckSize := deck.DefaultCatalog().Size() - 3

	created, err := f.mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)

	joined, err := f.mgr.JoinRoom(ctx, created.Code, "Bob")
	require.NoError(t, err)

	anaHand, err := f.mgr.Hand(ctx, created.Code, "Ana")
	require.NoError(t, err)
	bobHand, err := f.mgr.Hand(ctx, created.Code, "Bob")
	require.NoError(t, err)

	assert.Equal(t, joined.Hand, bobHand)
	assert.Equal(t, deckSize, len(anaHand)+len(bobHand))
	assert.Len(t, anaHand, (deckSize+1)/2)

	_, err = f.mgr.Hand(ctx, created.Code, "Eve")
	assert.ErrorIs(t, err, gameerr.ErrNotFound)
}

func TestCreateRoomRetriesOnCollision(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dealer, err := deck.NewDealer(deck.DefaultCatalog(), randutil.New(1))
	require.NoError(t, err)
	st := store.NewMemoryStore()

	// Every code generator draw yields index 0, so each code is "AAAAAA"
	// until the source switches to 1 ("BBBBBB").
	src := &scriptedSource{values: []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}}
	mgr := NewManager(st, dealer, roomcode.NewGenerator(src), testLogger())

	first, err := mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.Code)

	second, err := mgr.CreateRoom(ctx, "Bob")
	require.NoError(t, err)
	assert.Equal(t, "BBBBBB", second.Code)
}

func TestCreateRoomGivesUp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	dealer, err := deck.NewDealer(deck.DefaultCatalog(), randutil.New(1))
	require.NoError(t, err)
	st := store.NewMemoryStore()
	mgr := NewManager(st, dealer, roomcode.NewGenerator(&scriptedSource{}), testLogger(), WithCodeAttempts(3))

	_, err = mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)

	_, err = mgr.CreateRoom(ctx, "Bob")
	require.Error(t, err)
	assert.Equal(t, gameerr.KindInternal, gameerr.KindOf(err))
}

func TestConcurrentGuessesFromOnePlayer(t *testing.T) {
	t.Parallel()
	f := newFixture(t, deck.DefaultCatalog(), 9)
	ctx := context.Background()

	created, err := f.mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)
	_, err = f.mgr.JoinRoom(ctx, created.Code, "Bob")
	require.NoError(t, err)
	_, err = f.mgr.StartGame(ctx, created.Code)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if f.mgr.SubmitGuess(ctx, created.Code, "Ana", guessOf("a", "b", "c")) == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	snap, err := f.mgr.Status(ctx, created.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.GuessCount)
}

func TestConcurrentStatusFinishesOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t, deck.DefaultCatalog(), 10)
	ctx := context.Background()

	created, err := f.mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)
	_, err = f.mgr.JoinRoom(ctx, created.Code, "Bob")
	require.NoError(t, err)
	_, err = f.mgr.StartGame(ctx, created.Code)
	require.NoError(t, err)
	require.NoError(t, f.mgr.SubmitGuess(ctx, created.Code, "Ana", guessOf("a", "b", "c")))
	require.NoError(t, f.mgr.SubmitGuess(ctx, created.Code, "Bob", guessOf("d", "e", "f")))

	snaps := make([]Snapshot, 8)
	var wg sync.WaitGroup
	for i := range snaps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := f.mgr.Status(ctx, created.Code)
			assert.NoError(t, err)
			snaps[i] = s
		}()
	}
	wg.Wait()

	for _, s := range snaps {
		assert.Equal(t, snaps[0], s)
		assert.Equal(t, room.StatusFinished, s.Status)
	}
}

func TestRoomsListing(t *testing.T) {
	t.Parallel()
	f := newFixture(t, deck.DefaultCatalog(), 11)
	ctx := context.Background()

	a, err := f.mgr.CreateRoom(ctx, "Ana")
	require.NoError(t, err)
	_, err = f.mgr.CreateRoom(ctx, "Bob")
	require.NoError(t, err)
	_, err = f.mgr.JoinRoom(ctx, a.Code, "Cy")
	require.NoError(t, err)

	rooms, err := f.mgr.Rooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	for _, r := range rooms {
		assert.Equal(t, room.StatusWaiting, r.Status)
		if r.Code == a.Code {
			assert.Equal(t, 2, r.Players)
		} else {
			assert.Equal(t, 1, r.Players)
		}
	}
}

func TestCatalog(t *testing.T) {
	t.Parallel()
	f := newFixture(t, deck.DefaultCatalog(), 12)
	assert.Equal(t, deck.DefaultCatalog(), f.mgr.Catalog())
}

// scriptedSource replays values, then returns 0 forever.
type scriptedSource struct {
	mu     sync.Mutex
	values []int
}

func (s *scriptedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return 0
	}
	v := s.values[0] % n
	s.values = s.values[1:]
	return v
}

func guessOf(suspect, location, weapon deck.Card) room.Guess {
	return room.Guess{Suspect: suspect, Location: location, Weapon: weapon}
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
