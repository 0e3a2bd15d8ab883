// Package store keeps rooms by code and serialises all mutation of a single
// room.
//
// Update is the only way operations change a room: it takes the room's lock,
// hands the callback a private copy, and writes the copy back only when the
// callback succeeds. Different rooms never contend on the same lock.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lox/sleuth/internal/gameerr"
	"github.com/lox/sleuth/internal/room"
)

// ErrCodeTaken is returned by Create when the code is already in use.
var ErrCodeTaken = errors.New("room code already in use")

// Store is a keyed room repository.
type Store interface {
	// Get returns a copy of the room, or an error wrapping gameerr.ErrNotFound.
	Get(ctx context.Context, code string) (*room.Room, error)
	// Exists reports whether a room with code is stored.
	Exists(ctx context.Context, code string) (bool, error)
	// Create inserts r unless its code is taken, in which case it returns
	// ErrCodeTaken.
	Create(ctx context.Context, r *room.Room) error
	// Put inserts or replaces r.
	Put(ctx context.Context, r *room.Room) error
	// Update applies fn to a copy of the room under the room's lock and
	// persists it if fn returns nil. It returns the room as persisted, or as
	// it was when fn failed.
	Update(ctx context.Context, code string, fn func(*room.Room) error) (*room.Room, error)
	// List returns copies of every stored room.
	List(ctx context.Context) ([]*room.Room, error)
}

func notFound(code string) error {
	return fmt.Errorf("%w: room %s", gameerr.ErrNotFound, code)
}

// keyedLocker hands out one mutex per room code. Entries live only while
// some caller holds or waits on them, so probing unknown codes does not grow
// the map.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{locks: make(map[string]*lockEntry)}
}

// lock blocks until code's mutex is held and returns its unlock func.
func (k *keyedLocker) lock(code string) func() {
	k.mu.Lock()
	e, ok := k.locks[code]
	if !ok {
		e = &lockEntry{}
		k.locks[code] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()

		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, code)
		}
		k.mu.Unlock()
	}
}

// size reports how many codes currently have a lock entry.
func (k *keyedLocker) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
