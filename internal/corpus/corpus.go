// Package corpus manages the per-person evidence corpus: fetched pages
// split into embedded text chunks, persisted as a JSON store on disk.
package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Chunk is one retrievable unit of evidence text
type Chunk struct {
	ID        string    `json:"id"`
	Person    string    `json:"person"`
	URL       string    `json:"url"`
	Domain    string    `json:"domain"`
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// Store is a JSON-file-backed chunk collection, safe for concurrent use
type Store struct {
	path   string
	mu     sync.RWMutex
	chunks []Chunk
}

// NewStore creates an empty store that persists to path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// LoadStore reads an existing store from path. A missing file yields an
// empty store, not an error.
func LoadStore(path string) (*Store, error) {
	s := NewStore(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	if err := json.Unmarshal(data, &s.chunks); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	return s, nil
}

// Save writes the store back to disk
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.chunks, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal corpus: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create corpus dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write corpus: %w", err)
	}
	return nil
}

// Add appends chunks to the store
func (s *Store) Add(chunks ...Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, chunks...)
}

// Len returns the number of stored chunks
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// ForPerson returns all chunks recorded for the given person
func (s *Store) ForPerson(person string) []Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Chunk
	for _, ch := range s.chunks {
		if ch.Person == person {
			out = append(out, ch)
		}
	}
	return out
}

// Persons returns the distinct person names in the store, sorted
func (s *Store) Persons() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var names []string
	for _, ch := range s.chunks {
		if !seen[ch.Person] {
			seen[ch.Person] = true
			names = append(names, ch.Person)
		}
	}
	sort.Strings(names)
	return names
}
