package docstore_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-social/pkg/simplesocial"
	"github.com/tendant/simple-social/pkg/simplesocial/docstore"
)

func doc(id string, created time.Time, fields simplesocial.Fields) *simplesocial.Document {
	return &simplesocial.Document{ID: id, CreatedAt: created, UpdatedAt: created, Fields: fields}
}

func TestNewID(t *testing.T) {
	a, err := docstore.NewID()
	require.NoError(t, err)
	b, err := docstore.NewID()
	require.NoError(t, err)
	assert.Len(t, a, 21)
	assert.NotEqual(t, a, b)
}

func TestNormalize(t *testing.T) {
	out, err := docstore.Normalize(simplesocial.Fields{
		"tags":  []string{"a", "b"},
		"count": 3,
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out["tags"])
	assert.Equal(t, float64(3), out["count"])

	_, err = docstore.Normalize(simplesocial.Fields{"$id": "x"})
	assert.Error(t, err)
}

func TestMerge(t *testing.T) {
	base := simplesocial.Fields{"a": 1, "b": 2}
	merged := docstore.Merge(base, simplesocial.Fields{"b": 3, "c": 4})
	assert.Equal(t, simplesocial.Fields{"a": 1, "b": 3, "c": 4}, merged)
	assert.Equal(t, 2, base["b"], "base must not be modified")
}

func TestApply(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	docs := []*simplesocial.Document{
		doc("a", t0, simplesocial.Fields{"creator": "u1", "n": float64(2)}),
		doc("b", t0.Add(time.Hour), simplesocial.Fields{"creator": "u2", "n": float64(1)}),
		doc("c", t0.Add(2*time.Hour), simplesocial.Fields{"creator": "u1", "n": float64(3)}),
	}

	ids := func(in []*simplesocial.Document) []string {
		out := make([]string, 0, len(in))
		for _, d := range in {
			out = append(out, d.ID)
		}
		return out
	}

	tests := []struct {
		name  string
		query simplesocial.Query
		want  []string
	}{
		{"all", simplesocial.Query{}, []string{"a", "b", "c"}},
		{"filter", simplesocial.Query{Field: "creator", Value: "u1"}, []string{"a", "c"}},
		{"by id", simplesocial.Query{Field: simplesocial.FieldID, Value: "b"}, []string{"b"}},
		{"newest first", simplesocial.Query{OrderBy: simplesocial.FieldCreatedAt, Descending: true}, []string{"c", "b", "a"}},
		{"limit", simplesocial.Query{OrderBy: simplesocial.FieldCreatedAt, Descending: true, Limit: 2}, []string{"c", "b"}},
		{"numeric field", simplesocial.Query{OrderBy: "n"}, []string{"b", "a", "c"}},
		{"no match", simplesocial.Query{Field: "creator", Value: "nobody"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(docstore.Apply(docs, tt.query)))
		})
	}
	assert.Equal(t, "a", docs[0].ID, "input must not be reordered")
}

func TestNotFound(t *testing.T) {
	err := docstore.NotFound(simplesocial.CollectionPosts, "get", "x")
	assert.ErrorIs(t, err, simplesocial.ErrDocumentNotFound)
	assert.True(t, simplesocial.IsNotFound(err))
}
