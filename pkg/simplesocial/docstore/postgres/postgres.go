// Package postgres implements simplesocial.DocumentStore on PostgreSQL. All
// collections share one table; document fields live in a JSONB column.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-social/pkg/simplesocial"
	"github.com/tendant/simple-social/pkg/simplesocial/docstore"
)

//go:embed schema.sql
var schema string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements simplesocial.DocumentStore using PostgreSQL
type Store struct {
	db DBTX
}

// New creates a new PostgreSQL document store
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a new PostgreSQL document store with connection pool
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// EnsureSchema creates the documents table and its indexes when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return handlePostgresError("", "ensure schema", err)
	}
	return nil
}

// Error handling helper
func handlePostgresError(collection, operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return &simplesocial.DocumentFault{Collection: collection, Op: operation, Reason: "duplicate document id", Err: err}
		case "23502": // not_null_violation
			return &simplesocial.DocumentFault{Collection: collection, Op: operation, Reason: fmt.Sprintf("required column %s is missing", pgErr.ColumnName), Err: err}
		case "42P01": // undefined_table
			return &simplesocial.DocumentFault{Collection: collection, Op: operation, Reason: "table does not exist - database migration required", Err: err}
		default:
			return &simplesocial.DocumentFault{Collection: collection, Op: operation, Reason: fmt.Sprintf("%s (code: %s)", pgErr.Message, pgErr.Code), Err: err}
		}
	}
	return simplesocial.NewDocumentFault(collection, operation, err)
}

const returningColumns = "id, created_at, updated_at, data"

func (s *Store) CreateDocument(ctx context.Context, collection string, fields simplesocial.Fields) (*simplesocial.Document, error) {
	normalized, err := docstore.Normalize(fields)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "create", err)
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "create", err)
	}
	id, err := docstore.NewID()
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "create", err)
	}
	now := docstore.Now()

	query := `
		INSERT INTO documents (collection, id, created_at, updated_at, data)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		RETURNING ` + returningColumns

	doc, err := scanDocument(collection, s.db.QueryRow(ctx, query, collection, id, now, now, string(data)))
	if err != nil {
		return nil, handlePostgresError(collection, "create", err)
	}
	return doc, nil
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (*simplesocial.Document, error) {
	query := `SELECT ` + returningColumns + ` FROM documents WHERE collection = $1 AND id = $2`

	doc, err := scanDocument(collection, s.db.QueryRow(ctx, query, collection, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, docstore.NotFound(collection, "get", id)
		}
		return nil, handlePostgresError(collection, "get", err)
	}
	return doc, nil
}

func (s *Store) GetDocumentsWhere(ctx context.Context, collection string, q simplesocial.Query) ([]*simplesocial.Document, error) {
	query, args := selectQuery(collection, q)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, handlePostgresError(collection, "list", err)
	}
	defer rows.Close()

	var docs []*simplesocial.Document
	for rows.Next() {
		doc, err := scanDocument(collection, rows)
		if err != nil {
			return nil, handlePostgresError(collection, "list", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, handlePostgresError(collection, "list", err)
	}
	return docs, nil
}

func (s *Store) UpdateDocument(ctx context.Context, collection, id string, fields simplesocial.Fields) (*simplesocial.Document, error) {
	normalized, err := docstore.Normalize(fields)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "update", err)
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "update", err)
	}

	// jsonb || replaces top-level keys, which is exactly a shallow merge.
	query := `
		UPDATE documents SET data = data || $3::jsonb, updated_at = $4
		WHERE collection = $1 AND id = $2
		RETURNING ` + returningColumns

	doc, err := scanDocument(collection, s.db.QueryRow(ctx, query, collection, id, string(data), docstore.Now()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, docstore.NotFound(collection, "update", id)
		}
		return nil, handlePostgresError(collection, "update", err)
	}
	return doc, nil
}

func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return handlePostgresError(collection, "delete", err)
	}
	if tag.RowsAffected() == 0 {
		return docstore.NotFound(collection, "delete", id)
	}
	return nil
}

// selectQuery builds the SELECT for q. Field names only ever reach the SQL
// text through metadataColumn; document field names are bound as parameters.
func selectQuery(collection string, q simplesocial.Query) (string, []any) {
	var sb strings.Builder
	args := []any{collection}

	sb.WriteString(`SELECT ` + returningColumns + ` FROM documents WHERE collection = $1`)

	if q.Field != "" {
		if column, ok := metadataColumn(q.Field); ok {
			args = append(args, metadataValue(q.Field, q.Value))
			fmt.Fprintf(&sb, " AND %s = $%d", column, len(args))
		} else {
			args = append(args, q.Field, textValue(q.Value))
			fmt.Fprintf(&sb, " AND data->>$%d::text = $%d", len(args)-1, len(args))
		}
	}

	if q.OrderBy != "" {
		direction := "ASC"
		if q.Descending {
			direction = "DESC"
		}
		if column, ok := metadataColumn(q.OrderBy); ok {
			fmt.Fprintf(&sb, " ORDER BY %s %s", column, direction)
		} else {
			args = append(args, q.OrderBy)
			fmt.Fprintf(&sb, " ORDER BY data->$%d::text %s", len(args), direction)
		}
		fmt.Fprintf(&sb, ", id %s", direction)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, " LIMIT $%d", len(args))
	}
	return sb.String(), args
}

func metadataColumn(field string) (string, bool) {
	switch field {
	case simplesocial.FieldID:
		return "id", true
	case simplesocial.FieldCreatedAt:
		return "created_at", true
	case simplesocial.FieldUpdatedAt:
		return "updated_at", true
	}
	return "", false
}

func metadataValue(field string, v any) any {
	if field == simplesocial.FieldID {
		return textValue(v)
	}
	if t, ok := v.(time.Time); ok {
		return t
	}
	return textValue(v)
}

// textValue renders v the way ->> renders a JSON scalar.
func textValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func scanDocument(collection string, row pgx.Row) (*simplesocial.Document, error) {
	var (
		doc  simplesocial.Document
		data []byte
	)
	if err := row.Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt, &data); err != nil {
		return nil, err
	}
	doc.Collection = collection
	doc.CreatedAt = doc.CreatedAt.UTC()
	doc.UpdatedAt = doc.UpdatedAt.UTC()
	doc.Fields = simplesocial.Fields{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc.Fields); err != nil {
			return nil, fmt.Errorf("decode document data: %w", err)
		}
	}
	return &doc, nil
}
