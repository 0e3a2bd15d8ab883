package store

import (
	"context"
	"sort"
	"sync"

	"github.com/lox/sleuth/internal/room"
)

// MemoryStore keeps rooms in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room
	locks *keyedLocker
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*room.Room),
		locks: newKeyedLocker(),
	}
}

func (s *MemoryStore) Get(_ context.Context, code string) (*room.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rooms[code]
	if !ok {
		return nil, notFound(code)
	}
	return r.Clone(), nil
}

func (s *MemoryStore) Exists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[code]
	return ok, nil
}

func (s *MemoryStore) Create(_ context.Context, r *room.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rooms[r.Code]; exists {
		return ErrCodeTaken
	}
	s.rooms[r.Code] = r.Clone()
	return nil
}

func (s *MemoryStore) Put(_ context.Context, r *room.Room) error {
	unlock := s.locks.lock(r.Code)
	defer unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.Code] = r.Clone()
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, code string, fn func(*room.Room) error) (*room.Room, error) {
	unlock := s.locks.lock(code)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := s.Get(ctx, code)
	if err != nil {
		return nil, err
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return current, err
	}

	s.mu.Lock()
	s.rooms[code] = working.Clone()
	s.mu.Unlock()
	return working, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*room.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rooms := make([]*room.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rooms = append(rooms, r.Clone())
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Code < rooms[j].Code })
	return rooms, nil
}
