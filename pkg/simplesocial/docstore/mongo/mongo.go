// Package mongo implements simplesocial.DocumentStore on MongoDB. Each
// collection maps to a Mongo collection of the same name; document fields are
// kept under "data" next to the server-assigned metadata.
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/tendant/simple-social/pkg/simplesocial"
	"github.com/tendant/simple-social/pkg/simplesocial/docstore"
)

// DefaultDatabase is used when the connection URI names no database.
const DefaultDatabase = "simplesocial"

type record struct {
	ID        string    `bson:"_id"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
	Data      bson.M    `bson:"data"`
}

// Store implements simplesocial.DocumentStore using MongoDB
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New creates a store on an already connected database.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Connect dials uri, pings the server and opens database. An empty database
// falls back to the one named in uri, then DefaultDatabase.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	if database == "" {
		database = databaseFromURI(uri)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Connected to MongoDB", "database", database)

	return &Store{client: client, db: client.Database(database)}, nil
}

// Close disconnects the client opened by Connect.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) CreateDocument(ctx context.Context, collection string, fields simplesocial.Fields) (*simplesocial.Document, error) {
	normalized, err := docstore.Normalize(fields)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "create", err)
	}
	id, err := docstore.NewID()
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "create", err)
	}

	ts := now()
	rec := record{
		ID:        id,
		CreatedAt: ts,
		UpdatedAt: ts,
		Data:      bson.M(normalized),
	}
	if _, err := s.db.Collection(collection).InsertOne(ctx, rec); err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "create", err)
	}

	return &simplesocial.Document{
		ID:         id,
		Collection: collection,
		CreatedAt:  ts,
		UpdatedAt:  ts,
		Fields:     normalized,
	}, nil
}

func (s *Store) GetDocument(ctx context.Context, collection, id string) (*simplesocial.Document, error) {
	var rec record
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, docstore.NotFound(collection, "get", id)
		}
		return nil, simplesocial.NewDocumentFault(collection, "get", err)
	}
	return toDocument(collection, &rec)
}

func (s *Store) GetDocumentsWhere(ctx context.Context, collection string, q simplesocial.Query) ([]*simplesocial.Document, error) {
	filter, err := buildFilter(q)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "list", err)
	}

	opts := options.Find()
	if sort := buildSort(q); sort != nil {
		opts.SetSort(sort)
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "list", err)
	}
	defer cursor.Close(ctx)

	var recs []record
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "list", err)
	}

	docs := make([]*simplesocial.Document, 0, len(recs))
	for i := range recs {
		doc, err := toDocument(collection, &recs[i])
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Store) UpdateDocument(ctx context.Context, collection, id string, fields simplesocial.Fields) (*simplesocial.Document, error) {
	normalized, err := docstore.Normalize(fields)
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "update", err)
	}

	set := bson.M{"updatedAt": now()}
	for k, v := range normalized {
		set["data."+k] = v
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec record
	err = s.db.Collection(collection).FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, docstore.NotFound(collection, "update", id)
		}
		return nil, simplesocial.NewDocumentFault(collection, "update", err)
	}
	return toDocument(collection, &rec)
}

func (s *Store) DeleteDocument(ctx context.Context, collection, id string) error {
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return simplesocial.NewDocumentFault(collection, "delete", err)
	}
	if res.DeletedCount == 0 {
		return docstore.NotFound(collection, "delete", id)
	}
	return nil
}

// BSON datetimes keep milliseconds.
func now() time.Time {
	return docstore.Now().Truncate(time.Millisecond)
}

func fieldPath(field string) string {
	switch field {
	case simplesocial.FieldID:
		return "_id"
	case simplesocial.FieldCreatedAt:
		return "createdAt"
	case simplesocial.FieldUpdatedAt:
		return "updatedAt"
	}
	return "data." + field
}

func buildFilter(q simplesocial.Query) (bson.M, error) {
	if q.Field == "" {
		return bson.M{}, nil
	}
	value := q.Value
	if _, isTime := value.(time.Time); !isTime {
		// stored fields went through JSON, so compare against the same shape
		var err error
		if value, err = jsonValue(value); err != nil {
			return nil, err
		}
	}
	return bson.M{fieldPath(q.Field): value}, nil
}

func buildSort(q simplesocial.Query) bson.D {
	if q.OrderBy == "" {
		return nil
	}
	dir := 1
	if q.Descending {
		dir = -1
	}
	return bson.D{{Key: fieldPath(q.OrderBy), Value: dir}, {Key: "_id", Value: dir}}
}

func jsonValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode query value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode query value: %w", err)
	}
	return out, nil
}

func toDocument(collection string, rec *record) (*simplesocial.Document, error) {
	// Normalizing turns the driver's primitive.A and primitive.M into the
	// plain JSON shapes every other backend returns.
	fields, err := docstore.Normalize(simplesocial.Fields(rec.Data))
	if err != nil {
		return nil, simplesocial.NewDocumentFault(collection, "decode", err)
	}
	return &simplesocial.Document{
		ID:         rec.ID,
		Collection: collection,
		CreatedAt:  rec.CreatedAt.UTC(),
		UpdatedAt:  rec.UpdatedAt.UTC(),
		Fields:     fields,
	}, nil
}

func databaseFromURI(uri string) string {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil || cs.Database == "" {
		return DefaultDatabase
	}
	return cs.Database
}
