// Package docstore holds the query semantics shared by the document store
// backends. Backends that cannot push a Query down to their engine evaluate it
// in memory with Apply.
package docstore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/tendant/simple-social/pkg/simplesocial"
)

// NewID generates a document id. Ids are 21 character URL-safe nanoids.
func NewID() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return id, nil
}

// Now returns the store timestamp, truncated to microseconds so that it
// survives a round trip through every backend unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Normalize returns a deep copy of fields in the shape a JSON backend would
// hand back: slices become []any and numbers float64. Metadata keys starting
// with "$" are rejected.
func Normalize(fields simplesocial.Fields) (simplesocial.Fields, error) {
	for k := range fields {
		if strings.HasPrefix(k, "$") {
			return nil, fmt.Errorf("field %q is reserved", k)
		}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	out := simplesocial.Fields{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return out, nil
}

// Merge applies partial on top of a copy of base.
func Merge(base, partial simplesocial.Fields) simplesocial.Fields {
	out := make(simplesocial.Fields, len(base)+len(partial))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range partial {
		out[k] = v
	}
	return out
}

// Value returns a document attribute by name, resolving metadata fields.
func Value(doc *simplesocial.Document, field string) any {
	switch field {
	case simplesocial.FieldID:
		return doc.ID
	case simplesocial.FieldCreatedAt:
		return doc.CreatedAt
	case simplesocial.FieldUpdatedAt:
		return doc.UpdatedAt
	}
	return doc.Fields[field]
}

// Matches reports whether doc satisfies the equality filter of q.
func Matches(doc *simplesocial.Document, q simplesocial.Query) bool {
	if q.Field == "" {
		return true
	}
	return equal(Value(doc, q.Field), q.Value)
}

func equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	// Values come back from storage as JSON types, so compare by their
	// canonical text form.
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// Apply filters, orders and limits docs according to q. The input slice is
// not modified.
func Apply(docs []*simplesocial.Document, q simplesocial.Query) []*simplesocial.Document {
	out := make([]*simplesocial.Document, 0, len(docs))
	for _, doc := range docs {
		if Matches(doc, q) {
			out = append(out, doc)
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(Value(out[i], q.OrderBy), Value(out[j], q.OrderBy))
			if c == 0 {
				// tie-break on id so equal timestamps still order deterministically
				c = strings.Compare(out[i].ID, out[j].ID)
			}
			if q.Descending {
				return c > 0
			}
			return c < 0
		})
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func compare(a, b any) int {
	switch va := a.(type) {
	case time.Time:
		if vb, ok := b.(time.Time); ok {
			return va.Compare(vb)
		}
	case float64:
		if vb, ok := b.(float64); ok {
			switch {
			case va < vb:
				return -1
			case va > vb:
				return 1
			}
			return 0
		}
	case nil:
		if b == nil {
			return 0
		}
		return -1
	}
	if b == nil {
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// NotFound builds the fault every backend returns for a missing document.
func NotFound(collection, op, id string) error {
	return &simplesocial.DocumentFault{
		Collection: collection,
		Op:         op,
		Reason:     fmt.Sprintf("document %s not found", id),
		Err:        simplesocial.ErrDocumentNotFound,
	}
}
