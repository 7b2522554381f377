package pgstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maine/ai_news_bot/internal/content"
	"github.com/maine/ai_news_bot/internal/store"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		rejected bool
	}{
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"invalid text", &pgconn.PgError{Code: "22P02"}, true},
		{"serialization failure", &pgconn.PgError{Code: "40001"}, false},
		{"too many connections", &pgconn.PgError{Code: "53300"}, false},
		{"wrapped", fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23502"}), true},
		{"network", errors.New("connection reset by peer"), false},
		{"bad attrs", fmt.Errorf("%w: decode attrs", content.ErrInvalidDocument), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("create", tt.err)
			assert.Equal(t, tt.rejected, store.IsRejected(err))
			assert.Equal(t, !tt.rejected, store.IsTransient(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

// TestStore_Integration выполняется только при заданном PGSTORE_TEST_DSN.
func TestStore_Integration(t *testing.T) {
	dsn := os.Getenv("PGSTORE_TEST_DSN")
	if dsn == "" {
		t.Skip("PGSTORE_TEST_DSN not set")
	}
	ctx := context.Background()

	st, err := Open(ctx, dsn, 2)
	require.NoError(t, err)
	defer st.Close()

	key := fmt.Sprintf("it-%d", time.Now().UnixNano())
	t0 := time.Now().UTC().Truncate(time.Microsecond)
	doc := content.Document{
		Title:     "X",
		CreatedAt: t0,
		UpdatedAt: t0,
		Post:      &content.PostFields{Provider: "openai"},
	}

	id, err := st.Create(ctx, content.CollectionPosts, key, doc)
	require.NoError(t, err)

	doc.Title = "X2"
	doc.UpdatedAt = t0.Add(time.Minute)
	require.NoError(t, st.Update(ctx, content.CollectionPosts, id, doc))

	rec, err := st.FindByKey(ctx, content.CollectionPosts, key)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "X2", rec.Title)
	assert.True(t, rec.CreatedAt.Equal(t0))
}
