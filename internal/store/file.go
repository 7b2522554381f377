package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/maine/ai_news_bot/internal/content"
)

// FileStore хранит все записи в одном JSON-файле.
// Каждая операция читает файл заново, запись атомарная (через временный файл).
type FileStore struct {
	path string
	mu   sync.Mutex
}

var (
	_ RecordStore = (*FileStore)(nil)
	_ Lister      = (*FileStore)(nil)
)

type fileSnapshot struct {
	Records []content.Record `json:"records"`
}

// NewFileStore создаёт новый файловый стор.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// FindByKey реализует RecordStore.
func (s *FileStore) FindByKey(ctx context.Context, c content.Collection, key string) (content.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load("find")
	if err != nil {
		return content.Record{}, err
	}
	for _, rec := range snap.Records {
		if rec.Collection == c && rec.Key == key {
			return rec, nil
		}
	}
	return content.Record{}, ErrNotFound
}

// Create реализует RecordStore.
func (s *FileStore) Create(ctx context.Context, c content.Collection, key string, doc content.Document) (string, error) {
	if err := Validate("create", c, key, doc); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load("create")
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	snap.Records = append(snap.Records, content.Record{ID: id, Collection: c, Key: key, Document: doc})
	if err := s.save("create", snap); err != nil {
		return "", err
	}
	return id, nil
}

// Update реализует RecordStore.
func (s *FileStore) Update(ctx context.Context, c content.Collection, id string, doc content.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load("update")
	if err != nil {
		return err
	}

	for i, rec := range snap.Records {
		if rec.ID != id || rec.Collection != c {
			continue
		}
		if err := Validate("update", c, rec.Key, doc); err != nil {
			return err
		}
		snap.Records[i] = applyUpdate(rec, doc)
		return s.save("update", snap)
	}
	return Rejected("update", ErrNotFound)
}

// Latest реализует Lister.
func (s *FileStore) Latest(ctx context.Context, c content.Collection, limit int) ([]content.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load("latest")
	if err != nil {
		return nil, err
	}
	var out []content.Record
	for _, rec := range snap.Records {
		if rec.Collection == c {
			out = append(out, rec)
		}
	}
	return newestFirst(out, limit), nil
}

func (s *FileStore) load(op string) (fileSnapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSnapshot{}, nil
		}
		return fileSnapshot{}, Unavailable(op, fmt.Errorf("read store file: %w", err))
	}

	var snap fileSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		// Повреждённый файл не заменяем пустым: это привело бы к дубликатам.
		return fileSnapshot{}, Rejected(op, fmt.Errorf("decode store file %s: %w", s.path, err))
	}
	return snap, nil
}

func (s *FileStore) save(op string, snap fileSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return Rejected(op, fmt.Errorf("marshal records: %w", err))
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Unavailable(op, fmt.Errorf("create store directory: %w", err))
	}

	// Атомарная запись через временный файл
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return Unavailable(op, fmt.Errorf("write temp store file: %w", err))
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return Unavailable(op, fmt.Errorf("rename temp store file: %w", err))
	}
	return nil
}
