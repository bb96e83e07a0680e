package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/tendant/simple-social/pkg/simplesocial"
	"github.com/tendant/simple-social/pkg/simplesocial/docstore/docstoretest"
)

func TestBuildFilter(t *testing.T) {
	filter, err := buildFilter(simplesocial.Query{})
	require.NoError(t, err)
	assert.Empty(t, filter)

	filter, err = buildFilter(simplesocial.Query{Field: "accountId", Value: "acc-1"})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"data.accountId": "acc-1"}, filter)

	filter, err = buildFilter(simplesocial.Query{Field: simplesocial.FieldID, Value: "abc"})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": "abc"}, filter)

	// numbers are compared in their stored JSON form
	filter, err = buildFilter(simplesocial.Query{Field: "count", Value: 3})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"data.count": float64(3)}, filter)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	filter, err = buildFilter(simplesocial.Query{Field: simplesocial.FieldCreatedAt, Value: at})
	require.NoError(t, err)
	assert.Equal(t, bson.M{"createdAt": at}, filter)
}

func TestBuildSort(t *testing.T) {
	assert.Nil(t, buildSort(simplesocial.Query{}))
	assert.Equal(t,
		bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}},
		buildSort(simplesocial.Query{OrderBy: simplesocial.FieldCreatedAt, Descending: true}))
	assert.Equal(t,
		bson.D{{Key: "data.caption", Value: 1}, {Key: "_id", Value: 1}},
		buildSort(simplesocial.Query{OrderBy: "caption"}))
}

func TestDatabaseFromURI(t *testing.T) {
	assert.Equal(t, "social", databaseFromURI("mongodb://localhost:27017/social"))
	assert.Equal(t, DefaultDatabase, databaseFromURI("mongodb://localhost:27017"))
	assert.Equal(t, DefaultDatabase, databaseFromURI("::not a uri::"))
}

// TestStore_Conformance runs against a live server when
// SIMPLESOCIAL_TEST_MONGODB_URI is set.
func TestStore_Conformance(t *testing.T) {
	uri := os.Getenv("SIMPLESOCIAL_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("SIMPLESOCIAL_TEST_MONGODB_URI not set")
	}

	store, err := Connect(context.Background(), uri, "simplesocial_test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })

	docstoretest.Run(t, func(t *testing.T) simplesocial.DocumentStore {
		require.NoError(t, store.db.Drop(context.Background()))
		return store
	})
}
