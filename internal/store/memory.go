package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/maine/ai_news_bot/internal/content"
)

// MemoryStore хранит записи в памяти процесса. Используется в тестах и в режиме dry-run.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]content.Record
	order   []string
	newID   func() string
}

var (
	_ RecordStore = (*MemoryStore)(nil)
	_ Lister      = (*MemoryStore)(nil)
)

// NewMemoryStore создаёт пустое хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]content.Record),
		newID:   uuid.NewString,
	}
}

// FindByKey реализует RecordStore. Возвращает самую раннюю запись с ключом.
func (s *MemoryStore) FindByKey(ctx context.Context, c content.Collection, key string) (content.Record, error) {
	if err := ctx.Err(); err != nil {
		return content.Record{}, Unavailable("find", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		rec := s.records[id]
		if rec.Collection == c && rec.Key == key {
			return rec, nil
		}
	}
	return content.Record{}, ErrNotFound
}

// Create реализует RecordStore.
func (s *MemoryStore) Create(ctx context.Context, c content.Collection, key string, doc content.Document) (string, error) {
	if err := Validate("create", c, key, doc); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", Unavailable("create", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	s.records[id] = content.Record{ID: id, Collection: c, Key: key, Document: doc}
	s.order = append(s.order, id)
	return id, nil
}

// Update реализует RecordStore.
func (s *MemoryStore) Update(ctx context.Context, c content.Collection, id string, doc content.Document) error {
	if err := ctx.Err(); err != nil {
		return Unavailable("update", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.Collection != c {
		return Rejected("update", ErrNotFound)
	}
	if err := Validate("update", c, rec.Key, doc); err != nil {
		return err
	}

	s.records[id] = applyUpdate(rec, doc)
	return nil
}

// Latest реализует Lister.
func (s *MemoryStore) Latest(ctx context.Context, c content.Collection, limit int) ([]content.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []content.Record
	for _, id := range s.order {
		if rec := s.records[id]; rec.Collection == c {
			out = append(out, rec)
		}
	}
	return newestFirst(out, limit), nil
}

// Count возвращает число записей с ключом в коллекции.
func (s *MemoryStore) Count(c content.Collection, key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, rec := range s.records {
		if rec.Collection == c && rec.Key == key {
			n++
		}
	}
	return n
}

// applyUpdate переносит изменяемые поля документа в запись, сохраняя ID и CreatedAt.
func applyUpdate(rec content.Record, doc content.Document) content.Record {
	createdAt := rec.CreatedAt
	rec.Document = doc
	rec.CreatedAt = createdAt
	return rec
}

func newestFirst(records []content.Record, limit int) []content.Record {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records
}
