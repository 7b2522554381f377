// Package pgstore реализует store.RecordStore поверх PostgreSQL через пул pgx.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS records (
	id          TEXT PRIMARY KEY,
	collection  TEXT NOT NULL,
	key         TEXT NOT NULL,
	title       TEXT NOT NULL,
	excerpt     TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	source_url  TEXT NOT NULL DEFAULT '',
	attrs       JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS records_collection_key ON records (collection, key);
CREATE INDEX IF NOT EXISTS records_collection_created ON records (collection, created_at);
`

// Store хранит записи в таблице records.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ store.RecordStore = (*Store)(nil)
	_ store.Lister      = (*Store)(nil)
)

type attrs struct {
	Post     *content.PostFields     `json:"post,omitempty"`
	News     *content.NewsFields     `json:"news,omitempty"`
	Tutorial *content.TutorialFields `json:"tutorial,omitempty"`
}

// Open подключается к базе по DSN и применяет схему.
func Open(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = 2
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close закрывает пул.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// FindByKey реализует store.RecordStore.
func (s *Store) FindByKey(ctx context.Context, c content.Collection, key string) (content.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, collection, key, title, excerpt, body, source_url, attrs, created_at, updated_at
		FROM records
		WHERE collection = $1 AND key = $2
		ORDER BY created_at ASC
		LIMIT 1
	`, string(c), key)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
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
	raw, err := json.Marshal(attrs{Post: doc.Post, News: doc.News, Tutorial: doc.Tutorial})
	if err != nil {
		return "", store.Rejected("create", err)
	}

	id := uuid.NewString()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO records (id, collection, key, title, excerpt, body, source_url, attrs, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, id, string(c), key, doc.Title, doc.Excerpt, doc.Body, doc.SourceURL, raw, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return "", classify("create", err)
	}
	return id, nil
}

// Update реализует store.RecordStore.
func (s *Store) Update(ctx context.Context, c content.Collection, id string, doc content.Document) error {
	if err := doc.Validate(c); err != nil {
		return store.Rejected("update", err)
	}
	raw, err := json.Marshal(attrs{Post: doc.Post, News: doc.News, Tutorial: doc.Tutorial})
	if err != nil {
		return store.Rejected("update", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE records
		SET title = $1, excerpt = $2, body = $3, source_url = $4, attrs = $5, updated_at = $6
		WHERE id = $7 AND collection = $8
	`, doc.Title, doc.Excerpt, doc.Body, doc.SourceURL, raw, doc.UpdatedAt, id, string(c))
	if err != nil {
		return classify("update", err)
	}
	if tag.RowsAffected() == 0 {
		return store.Rejected("update", store.ErrNotFound)
	}
	return nil
}

// Latest реализует store.Lister.
func (s *Store) Latest(ctx context.Context, c content.Collection, limit int) ([]content.Record, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, collection, key, title, excerpt, body, source_url, attrs, created_at, updated_at
		FROM records
		WHERE collection = $1
		ORDER BY created_at DESC
		LIMIT $2
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

func scanRecord(row pgx.Row) (content.Record, error) {
	var (
		rec        content.Record
		collection string
		raw        []byte
	)
	if err := row.Scan(&rec.ID, &collection, &rec.Key, &rec.Title, &rec.Excerpt, &rec.Body,
		&rec.SourceURL, &raw, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return content.Record{}, err
	}

	var a attrs
	if err := json.Unmarshal(raw, &a); err != nil {
		return content.Record{}, fmt.Errorf("%w: decode attrs: %v", content.ErrInvalidDocument, err)
	}
	rec.Collection = content.Collection(collection)
	rec.Post, rec.News, rec.Tutorial = a.Post, a.News, a.Tutorial
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return rec, nil
}

// classify переводит ошибку драйвера в вид ошибки хранилища.
// Классы SQLSTATE 22 (данные) и 23 (ограничения) повторять бессмысленно.
func classify(op string, err error) error {
	if errors.Is(err, content.ErrInvalidDocument) {
		return store.Rejected(op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23") {
			return store.Rejected(op, err)
		}
	}
	return store.Unavailable(op, err)
}
