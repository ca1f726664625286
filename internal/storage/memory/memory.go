package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is an in-process blob store. Data does not survive a restart unless
// seeded from a directory.
type Store struct {
	mu    sync.Mutex
	blobs map[string][]byte
	base  string
}

func New() *Store {
	return &Store{blobs: map[string][]byte{}}
}

// NewFromDir returns a store that falls back to <base>/<key>.json for keys it
// has not seen yet. Writes stay in memory.
func NewFromDir(base string) *Store {
	s := New()
	s.base = base
	return s
}

// Load returns a copy of the stored blob, or nil if none exists.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.blobs[key]; ok {
		return append([]byte(nil), b...), nil
	}
	if b := s.readSeed(key); b != nil {
		s.blobs[key] = b
		return append([]byte(nil), b...), nil
	}
	return nil, nil
}

// Save stores a copy of data under key.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

// Keys lists every key currently held in memory.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		out = append(out, k)
	}
	return out
}

func (s *Store) readSeed(key string) []byte {
	if s.base == "" {
		return nil
	}
	name := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(key) + ".json"
	b, err := os.ReadFile(filepath.Join(s.base, name))
	if err != nil {
		return nil
	}
	return b
}
