// Package sqlitestore реализует store.RecordStore поверх SQLite (modernc.org/sqlite, без cgo).
package sqlitestore

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// Store хранит записи в таблице records.
type Store struct {
	db *sql.DB
}

var (
	_ store.RecordStore = (*Store)(nil)
	_ store.Lister      = (*Store)(nil)
)

// attrs - сериализуемая часть документа, зависящая от коллекции.
type attrs struct {
	Post     *content.PostFields     `json:"post,omitempty"`
	News     *content.NewsFields     `json:"news,omitempty"`
	Tutorial *content.TutorialFields `json:"tutorial,omitempty"`
}

// Open открывает (или создаёт) базу по пути и применяет схему.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite допускает одного писателя
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close закрывает соединение.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// FindByKey реализует store.RecordStore.
func (s *Store) FindByKey(ctx context.Context, c content.Collection, key string) (content.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, collection, key, title, excerpt, body, source_url, attrs, created_at, updated_at
		FROM records
		WHERE collection = ? AND key = ?
		ORDER BY created_at ASC
		LIMIT 1
	`, string(c), key)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return content.Record{}, store.ErrNotFound
	}
	if err != nil {
		return content.Record{}, classify("find", err)
	}
	return rec, nil
}

// Create реализует store.RecordStore.
func (s *Store) Create(ctx context.Context, c content.Collection, key string, doc content.Document) (string, error) {
	if err := store.Validate("create", c, key, doc); err != nil {
		return "", err
	}
	attrsJSON, err := marshalAttrs(doc)
	if err != nil {
		return "", store.Rejected("create", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, collection, key, title, excerpt, body, source_url, attrs, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, string(c), key, doc.Title, doc.Excerpt, doc.Body, doc.SourceURL, attrsJSON,
		doc.CreatedAt.UnixNano(), doc.UpdatedAt.UnixNano())
	if err != nil {
		return "", classify("create", err)
	}
	return id, nil
}

// Update реализует store.RecordStore. created_at не изменяется.
func (s *Store) Update(ctx context.Context, c content.Collection, id string, doc content.Document) error {
	if err := doc.Validate(c); err != nil {
		return store.Rejected("update", err)
	}
	attrsJSON, err := marshalAttrs(doc)
	if err != nil {
		return store.Rejected("update", err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE records
		SET title = ?, excerpt = ?, body = ?, source_url = ?, attrs = ?, updated_at = ?
		WHERE id = ? AND collection = ?
	`, doc.Title, doc.Excerpt, doc.Body, doc.SourceURL, attrsJSON, doc.UpdatedAt.UnixNano(), id, string(c))
	if err != nil {
		return classify("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update", err)
	}
	if n == 0 {
		return store.Rejected("update", store.ErrNotFound)
	}
	return nil
}

// Latest реализует store.Lister.
func (s *Store) Latest(ctx context.Context, c content.Collection, limit int) ([]content.Record, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection, key, title, excerpt, body, source_url, attrs, created_at, updated_at
		FROM records
		WHERE collection = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, string(c), limit)
	if err != nil {
		return nil, classify("latest", err)
	}
	defer rows.Close()

	var out []content.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, classify("latest", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("latest", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (content.Record, error) {
	var (
		rec        content.Record
		collection string
		attrsJSON  string
		createdAt  int64
		updatedAt  int64
	)
	if err := row.Scan(&rec.ID, &collection, &rec.Key, &rec.Title, &rec.Excerpt, &rec.Body,
		&rec.SourceURL, &attrsJSON, &createdAt, &updatedAt); err != nil {
		return content.Record{}, err
	}

	var a attrs
	if err := json.Unmarshal([]byte(attrsJSON), &a); err != nil {
		return content.Record{}, fmt.Errorf("%w: decode attrs: %v", content.ErrInvalidDocument, err)
	}
	rec.Collection = content.Collection(collection)
	rec.Post, rec.News, rec.Tutorial = a.Post, a.News, a.Tutorial
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	rec.UpdatedAt = time.Unix(0, updatedAt).UTC()
	return rec, nil
}

func marshalAttrs(doc content.Document) (string, error) {
	raw, err := json.Marshal(attrs{Post: doc.Post, News: doc.News, Tutorial: doc.Tutorial})
	if err != nil {
		return "", fmt.Errorf("marshal attrs: %w", err)
	}
	return string(raw), nil
}

// classify переводит ошибку драйвера в вид ошибки хранилища.
// Неизвестные ошибки считаются временными.
func classify(op string, err error) error {
	if errors.Is(err, content.ErrInvalidDocument) {
		return store.Rejected(op, err)
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_MISMATCH, sqlite3.SQLITE_TOOBIG, sqlite3.SQLITE_RANGE:
			return store.Rejected(op, err)
		}
	}
	return store.Unavailable(op, err)
}
