package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Store persists the liked set and the generation counter in a JSON file.
// Every mutation rewrites the file. A Store with an empty path keeps state
// in memory only.
type Store struct {
	path string

	mu          sync.Mutex
	liked       map[string]bool
	generations int
}

type storeFile struct {
	LikedExcuses    []string `json:"liked_excuses"`
	GenerationCount int      `json:"generation_count"`
}

// OpenStore loads the store at path. A missing or malformed file starts an
// empty store.
func OpenStore(path string) (*Store, error) {
	s := &Store{
		path:  path,
		liked: make(map[string]bool),
	}
	if path == "" {
		return s, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		// malformed -> start fresh
		return s, nil
	}
	for _, id := range f.LikedExcuses {
		s.liked[id] = true
	}
	s.generations = max(f.GenerationCount, 0)
	return s, nil
}

// Liked reports whether the excuse is in the liked set.
func (s *Store) Liked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liked[id]
}

// SetLiked adds the excuse to the liked set or removes it.
func (s *Store) SetLiked(id string, liked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if liked {
		s.liked[id] = true
	} else {
		delete(s.liked, id)
	}
	return s.saveLocked()
}

// Generations returns the number of excuses generated so far.
func (s *Store) Generations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations
}

// IncrementGenerations bumps the generation counter and returns the new value.
func (s *Store) IncrementGenerations() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations++
	return s.generations, s.saveLocked()
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	f := storeFile{
		LikedExcuses:    make([]string, 0, len(s.liked)),
		GenerationCount: s.generations,
	}
	for id := range s.liked {
		f.LikedExcuses = append(f.LikedExcuses, id)
	}
	sort.Strings(f.LikedExcuses)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}
