// Package storage persists request results as JSON files.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is the persisted form of a request result.
type Record struct {
	URL        string      `json:"url"`
	Status     int         `json:"status"`
	DurationMS int64       `json:"durationMs"`
	Kind       string      `json:"kind"`
	Data       interface{} `json:"data,omitempty"`
	Text       string      `json:"text,omitempty"`
	SavedAt    time.Time   `json:"savedAt"`
}

// EnsureDir creates path and its parents if they do not exist.
func EnsureDir(path string) error {
	if path == "" {
		return fmt.Errorf("directory path is empty")
	}
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return nil
}

// Store writes records into a single directory. It is safe for concurrent use.
type Store struct {
	dir string
	now func() time.Time

	mu  sync.Mutex
	seq uint64
}

// NewStore creates the directory if needed and returns a store rooted there.
func NewStore(dir string) (*Store, error) {
	if err := EnsureDir(dir); err != nil {
		return nil, err
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the directory records are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes rec as indented JSON with 0600 permissions and returns the
// file path. SavedAt is filled in when zero. The file appears atomically.
func (s *Store) Save(rec *Record) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("record is nil")
	}
	if rec.SavedAt.IsZero() {
		rec.SavedAt = s.now().UTC()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	s.seq++
	name := fmt.Sprintf("response-%s-%04d.json", rec.SavedAt.Format("20060102T150405.000000000Z"), s.seq)
	s.mu.Unlock()

	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".response-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("rename file: %w", err)
	}

	return path, nil
}

// Load reads a record previously written by Save.
func Load(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return &rec, nil
}

// List returns the paths of all saved records, oldest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}
	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, "response-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, name))
	}
	return paths, nil
}
