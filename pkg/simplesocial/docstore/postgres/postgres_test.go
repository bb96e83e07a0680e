package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-social/pkg/simplesocial"
	"github.com/tendant/simple-social/pkg/simplesocial/docstore/docstoretest"
)

func TestSelectQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    simplesocial.Query
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "whole collection",
			query:    simplesocial.Query{},
			wantSQL:  "SELECT id, created_at, updated_at, data FROM documents WHERE collection = $1",
			wantArgs: []any{"posts"},
		},
		{
			name: "recent feed",
			query: simplesocial.Query{
				OrderBy:    simplesocial.FieldCreatedAt,
				Descending: true,
				Limit:      20,
			},
			wantSQL:  "SELECT id, created_at, updated_at, data FROM documents WHERE collection = $1 ORDER BY created_at DESC, id DESC LIMIT $2",
			wantArgs: []any{"posts", 20},
		},
		{
			name:     "field filter binds the field name",
			query:    simplesocial.Query{Field: "creator", Value: "acc-1", Limit: 1},
			wantSQL:  "SELECT id, created_at, updated_at, data FROM documents WHERE collection = $1 AND data->>$2::text = $3 LIMIT $4",
			wantArgs: []any{"posts", "creator", "acc-1", 1},
		},
		{
			name:     "order by document field",
			query:    simplesocial.Query{OrderBy: "caption"},
			wantSQL:  "SELECT id, created_at, updated_at, data FROM documents WHERE collection = $1 ORDER BY data->$2::text ASC, id ASC",
			wantArgs: []any{"posts", "caption"},
		},
		{
			name:     "metadata filter uses the column",
			query:    simplesocial.Query{Field: simplesocial.FieldID, Value: "abc"},
			wantSQL:  "SELECT id, created_at, updated_at, data FROM documents WHERE collection = $1 AND id = $2",
			wantArgs: []any{"posts", "abc"},
		},
		{
			name:     "hostile field name stays a parameter",
			query:    simplesocial.Query{Field: "x'; DROP TABLE documents; --", Value: 1},
			wantSQL:  "SELECT id, created_at, updated_at, data FROM documents WHERE collection = $1 AND data->>$2::text = $3",
			wantArgs: []any{"posts", "x'; DROP TABLE documents; --", "1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := selectQuery("posts", tt.query)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

// TestStore_Conformance runs against a live database when
// SIMPLESOCIAL_TEST_DATABASE_URL is set.
func TestStore_Conformance(t *testing.T) {
	dsn := os.Getenv("SIMPLESOCIAL_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SIMPLESOCIAL_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	store := NewWithPool(pool)
	require.NoError(t, store.EnsureSchema(ctx))

	docstoretest.Run(t, func(t *testing.T) simplesocial.DocumentStore {
		_, err := pool.Exec(context.Background(), "TRUNCATE documents")
		require.NoError(t, err)
		return store
	})
}
