package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	apperrors "trade-journal/internal/errors"
	"trade-journal/internal/models"
)

const fileExt = ".json"

// FileStore keeps one JSON file per document key in a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates a file store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("empty store directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Backend implements DocumentStore.
func (s *FileStore) Backend() string { return "file" }

// Dir returns the store directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// Load implements DocumentStore.
func (s *FileStore) Load(ctx context.Context, key string) (*models.Document, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, notFound(s.Backend(), key)
		}
		return nil, apperrors.NewStoreError(s.Backend(), "load", key, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, apperrors.NewStoreError(s.Backend(), "load", key, err)
	}
	return doc, nil
}

// Save implements DocumentStore. The file is replaced atomically.
func (s *FileStore) Save(ctx context.Context, key string, doc *models.Document) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	data, err := Encode(doc)
	if err != nil {
		return apperrors.NewStoreError(s.Backend(), "save", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, "."+key+"-*.tmp")
	if err != nil {
		return apperrors.NewStoreError(s.Backend(), "save", key, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewStoreError(s.Backend(), "save", key, err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewStoreError(s.Backend(), "save", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		return apperrors.NewStoreError(s.Backend(), "save", key, err)
	}
	return nil
}

// Delete implements DocumentStore. Deleting a missing key is not an error.
func (s *FileStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return apperrors.NewStoreError(s.Backend(), "delete", key, err)
	}
	return nil
}

// Keys implements DocumentStore.
func (s *FileStore) Keys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apperrors.NewStoreError(s.Backend(), "keys", "", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) || strings.HasPrefix(name, ".") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// Close implements DocumentStore.
func (s *FileStore) Close() error { return nil }
