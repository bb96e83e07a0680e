// Package docstoretest is a conformance suite run against every document
// store backend.
package docstoretest

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-social/pkg/simplesocial"
)

// Run exercises store against the DocumentStore contract. newStore must
// return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) simplesocial.DocumentStore) {
	t.Run("CreateAssignsMetadata", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		before := time.Now().Add(-time.Second)

		doc, err := store.CreateDocument(ctx, simplesocial.CollectionPosts, simplesocial.Fields{
			"caption": "hello",
			"tags":    []string{"a", "b"},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, doc.ID)
		assert.Equal(t, simplesocial.CollectionPosts, doc.Collection)
		assert.True(t, doc.CreatedAt.After(before), "created at %v", doc.CreatedAt)
		assert.Equal(t, "hello", doc.Fields["caption"])
		assert.Equal(t, []string{"a", "b"}, Strings(doc.Fields["tags"]))
	})

	t.Run("GetRoundTrip", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.CreateDocument(ctx, simplesocial.CollectionUsers, simplesocial.Fields{
			"accountId": "acc-1",
			"posts":     []string{},
		})
		require.NoError(t, err)

		got, err := store.GetDocument(ctx, simplesocial.CollectionUsers, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.True(t, created.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, "acc-1", got.Fields["accountId"])
		assert.Empty(t, Strings(got.Fields["posts"]))
	})

	t.Run("GetMissing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetDocument(context.Background(), simplesocial.CollectionPosts, "missing")
		assertNotFound(t, err)
	})

	t.Run("CollectionsAreIsolated", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.CreateDocument(ctx, simplesocial.CollectionPosts, simplesocial.Fields{"caption": "x"})
		require.NoError(t, err)

		_, err = store.GetDocument(ctx, simplesocial.CollectionUsers, created.ID)
		assertNotFound(t, err)

		docs, err := store.GetDocumentsWhere(ctx, simplesocial.CollectionUsers, simplesocial.Query{})
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("WhereFiltersOrdersAndLimits", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		var ids []string
		for i := 0; i < 5; i++ {
			creator := "u1"
			if i%2 == 1 {
				creator = "u2"
			}
			doc, err := store.CreateDocument(ctx, simplesocial.CollectionPosts, simplesocial.Fields{
				"creator": creator,
				"caption": fmt.Sprintf("post %d", i),
			})
			require.NoError(t, err)
			ids = append(ids, doc.ID)
			time.Sleep(2 * time.Millisecond)
		}

		all, err := store.GetDocumentsWhere(ctx, simplesocial.CollectionPosts, simplesocial.Query{
			OrderBy:    simplesocial.FieldCreatedAt,
			Descending: true,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{ids[4], ids[3], ids[2], ids[1], ids[0]}, docIDs(all))

		limited, err := store.GetDocumentsWhere(ctx, simplesocial.CollectionPosts, simplesocial.Query{
			OrderBy:    simplesocial.FieldCreatedAt,
			Descending: true,
			Limit:      2,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{ids[4], ids[3]}, docIDs(limited))

		filtered, err := store.GetDocumentsWhere(ctx, simplesocial.CollectionPosts, simplesocial.Query{
			Field:   "creator",
			Value:   "u1",
			OrderBy: simplesocial.FieldCreatedAt,
		})
		require.NoError(t, err)
		assert.Equal(t, []string{ids[0], ids[2], ids[4]}, docIDs(filtered))

		none, err := store.GetDocumentsWhere(ctx, simplesocial.CollectionPosts, simplesocial.Query{Field: "creator", Value: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("UpdateMergesFields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.CreateDocument(ctx, simplesocial.CollectionPosts, simplesocial.Fields{
			"caption": "before",
			"likes":   []string{},
		})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)

		updated, err := store.UpdateDocument(ctx, simplesocial.CollectionPosts, created.ID, simplesocial.Fields{
			"likes": []string{"u1", "u2"},
		})
		require.NoError(t, err)
		assert.Equal(t, "before", updated.Fields["caption"])
		assert.Equal(t, []string{"u1", "u2"}, Strings(updated.Fields["likes"]))
		assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
		assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

		got, err := store.GetDocument(ctx, simplesocial.CollectionPosts, created.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"u1", "u2"}, Strings(got.Fields["likes"]))
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.UpdateDocument(context.Background(), simplesocial.CollectionPosts, "missing", simplesocial.Fields{"a": "b"})
		assertNotFound(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		created, err := store.CreateDocument(ctx, simplesocial.CollectionSaves, simplesocial.Fields{"user": "u1", "posts": "p1"})
		require.NoError(t, err)

		require.NoError(t, store.DeleteDocument(ctx, simplesocial.CollectionSaves, created.ID))
		_, err = store.GetDocument(ctx, simplesocial.CollectionSaves, created.ID)
		assertNotFound(t, err)

		assertNotFound(t, store.DeleteDocument(ctx, simplesocial.CollectionSaves, created.ID))
	})
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var fault *simplesocial.DocumentFault
	assert.ErrorAs(t, err, &fault)
	assert.ErrorIs(t, err, simplesocial.ErrDocumentNotFound)
}

func docIDs(docs []*simplesocial.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

// Strings converts a stored list value of any backend's dynamic type to
// []string.
func Strings(v any) []string {
	out := []string{}
	if v == nil {
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return out
	}
	for i := 0; i < rv.Len(); i++ {
		out = append(out, fmt.Sprint(rv.Index(i).Interface()))
	}
	return out
}
