package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lox/sleuth/internal/fileutil"
	"github.com/lox/sleuth/internal/room"
	"github.com/lox/sleuth/internal/roomcode"
)

const fileExt = ".json"

// FileStore keeps one JSON document per room in a directory. Locking is per
// process: two servers must not share a directory.
type FileStore struct {
	dir   string
	locks *keyedLocker
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{dir: dir, locks: newKeyedLocker()}, nil
}

// path maps a code to its document. Codes outside the room-code alphabet
// never map to a file, which keeps lookups inside dir.
func (s *FileStore) path(code string) (string, bool) {
	if roomcode.Validate(code) != nil {
		return "", false
	}
	return filepath.Join(s.dir, code+fileExt), true
}

func (s *FileStore) read(code string) (*room.Room, error) {
	path, ok := s.path(code)
	if !ok {
		return nil, notFound(code)
	}
	data, ok, err := fileutil.ReadFileIfExists(path)
	if err != nil {
		return nil, fmt.Errorf("read room %s: %w", code, err)
	}
	if !ok {
		return nil, notFound(code)
	}
	return decodeRoom(data)
}

func (s *FileStore) write(r *room.Room) error {
	path, ok := s.path(r.Code)
	if !ok {
		return fmt.Errorf("invalid room code %q", r.Code)
	}
	data, err := encodeRoom(r)
	if err != nil {
		return fmt.Errorf("encode room %s: %w", r.Code, err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

func (s *FileStore) Get(_ context.Context, code string) (*room.Room, error) {
	unlock := s.locks.lock(code)
	defer unlock()
	return s.read(code)
}

func (s *FileStore) Exists(_ context.Context, code string) (bool, error) {
	path, ok := s.path(code)
	if !ok {
		return false, nil
	}
	return fileutil.Exists(path)
}

func (s *FileStore) Create(_ context.Context, r *room.Room) error {
	unlock := s.locks.lock(r.Code)
	defer unlock()

	path, ok := s.path(r.Code)
	if !ok {
		return fmt.Errorf("invalid room code %q", r.Code)
	}
	exists, err := fileutil.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return ErrCodeTaken
	}
	return s.write(r)
}

func (s *FileStore) Put(_ context.Context, r *room.Room) error {
	unlock := s.locks.lock(r.Code)
	defer unlock()
	return s.write(r)
}

func (s *FileStore) Update(ctx context.Context, code string, fn func(*room.Room) error) (*room.Room, error) {
	unlock := s.locks.lock(code)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	current, err := s.read(code)
	if err != nil {
		return nil, err
	}

	working := current.Clone()
	if err := fn(working); err != nil {
		return current, err
	}
	if err := s.write(working); err != nil {
		return current, err
	}
	return working, nil
}

func (s *FileStore) List(ctx context.Context) ([]*room.Room, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list store directory: %w", err)
	}

	var rooms []*room.Room
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		code := strings.TrimSuffix(name, fileExt)
		if roomcode.Validate(code) != nil {
			continue
		}
		r, err := s.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Code < rooms[j].Code })
	return rooms, nil
}
