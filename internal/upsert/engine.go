// Package upsert решает, создать запись или обновить существующую с тем же ключом.
//
// Поиск и запись выполняются отдельными вызовами хранилища без транзакции.
// Два конкурентных вызова с одним ключом могут оба не найти запись и оба
// создать её. При размере пакета в несколько элементов это допустимо;
// строгая уникальность потребовала бы уникального индекса в хранилище.
package upsert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/retry"
	"github.com/maine/ai_news_bot/internal/slug"
	"github.com/maine/ai_news_bot/internal/store"
)

// Result описывает итог одного вызова Upsert.
type Result struct {
	ID        string
	Key       string
	WasUpdate bool
}

// Engine выполняет upsert поверх RecordStore.
type Engine struct {
	store  store.RecordStore
	policy retry.Policy
	now    func() time.Time
	logger *slog.Logger
}

// Option настраивает Engine.
type Option func(*Engine)

// WithPolicy задаёт политику повторов для вызовов хранилища.
func WithPolicy(p retry.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithClock подменяет источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger задаёт логгер.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New создаёт Engine. Хранилище передаётся явно и живёт дольше движка.
func New(st store.RecordStore, opts ...Option) *Engine {
	e := &Engine{
		store:  st,
		policy: retry.Default(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Upsert создаёт запись с ключом key или обновляет найденную.
// Ключ нормализуется через slug.Derive.
func (e *Engine) Upsert(ctx context.Context, c content.Collection, key string, doc content.Document) (Result, error) {
	key = slug.Derive(key)
	now := e.now().UTC()

	var (
		found  content.Record
		exists bool
	)
	err := e.guarded(ctx, "find", func(ctx context.Context) error {
		rec, err := e.store.FindByKey(ctx, c, key)
		if errors.Is(err, store.ErrNotFound) {
			exists = false
			return nil
		}
		if err != nil {
			return err
		}
		found, exists = rec, true
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("find %s/%s: %w", c, key, err)
	}

	if exists {
		doc.CreatedAt = time.Time{}
		doc.UpdatedAt = now
		err := e.guarded(ctx, "update", func(ctx context.Context) error {
			return e.store.Update(ctx, c, found.ID, doc)
		})
		if err != nil {
			return Result{}, fmt.Errorf("update %s/%s: %w", c, key, err)
		}
		e.logger.Debug("record updated", "collection", c, "key", key, "id", found.ID)
		return Result{ID: found.ID, Key: key, WasUpdate: true}, nil
	}

	doc.CreatedAt = now
	doc.UpdatedAt = now
	var id string
	err = e.guarded(ctx, "create", func(ctx context.Context) error {
		var err error
		id, err = e.store.Create(ctx, c, key, doc)
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("create %s/%s: %w", c, key, err)
	}
	e.logger.Debug("record created", "collection", c, "key", key, "id", id)
	return Result{ID: id, Key: key, WasUpdate: false}, nil
}

// guarded запускает fn под retry, но отказ хранилища (Rejected) не повторяет:
// он перехватывается внутри замыкания и возвращается уже снаружи.
func (e *Engine) guarded(ctx context.Context, op string, fn func(context.Context) error) error {
	var rejected error

	p := e.policy
	p.OnRetry = func(attempt int, delay time.Duration, err error) {
		e.logger.Warn("store call failed, retrying",
			"op", op, "attempt", attempt, "delay", delay, "error", err)
		if e.policy.OnRetry != nil {
			e.policy.OnRetry(attempt, delay, err)
		}
	}

	err := retry.Do(ctx, p, func(ctx context.Context) error {
		err := fn(ctx)
		if store.IsRejected(err) {
			rejected = err
			return nil
		}
		return err
	})
	if rejected != nil {
		return rejected
	}
	return err
}
