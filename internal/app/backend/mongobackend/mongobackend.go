// Package mongobackend implements backend.Backend on MongoDB. Tables map
// to collections; the "id" column is stored as the document _id.
package mongobackend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/folioadmin/internal/app/backend"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Backend is a backend.Backend bound to one Mongo database.
type Backend struct {
	db  *mongo.Database
	log *zap.Logger
}

var _ backend.Backend = (*Backend)(nil)

// New wraps an already connected database handle.
func New(db *mongo.Database, logger *zap.Logger) *Backend {
	return &Backend{db: db, log: logger}
}

// Options configures Connect.
type Options struct {
	URI         string
	Database    string
	MaxPoolSize uint64
	MinPoolSize uint64
}

// Connect dials Mongo, verifies the connection with a ping and returns
// the client together with a Backend on the configured database.
func Connect(ctx context.Context, opts Options, logger *zap.Logger) (*mongo.Client, *Backend, error) {
	clientOpts := options.Client().ApplyURI(opts.URI)
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(opts.MinPoolSize)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", opts.Database))
	return client, New(client.Database(opts.Database), logger), nil
}

// Count uses CountDocuments so the result is exact; no documents are
// transferred.
func (b *Backend) Count(ctx context.Context, table string) (*int64, error) {
	n, err := b.db.Collection(table).CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, translate(table, err)
	}
	return &n, nil
}

func (b *Backend) Select(ctx context.Context, table string, q backend.Query) ([]backend.Row, error) {
	filter := bson.M{}
	if !q.Since.IsZero() && q.SinceColumn != "" {
		filter[field(q.SinceColumn)] = bson.M{"$gte": q.Since}
	}

	opts := options.Find()
	if q.OrderBy != "" {
		dir := 1
		if q.Descending {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: field(q.OrderBy), Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if len(q.Columns) > 0 {
		proj := bson.M{}
		for _, c := range q.Columns {
			proj[field(c)] = 1
		}
		if _, ok := proj["_id"]; !ok {
			proj["_id"] = 0
		}
		opts.SetProjection(proj)
	}

	cur, err := b.db.Collection(table).Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(table, err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(table, err)
	}

	rows := make([]backend.Row, 0, len(docs))
	for _, d := range docs {
		rows = append(rows, toRow(d))
	}
	return rows, nil
}

func (b *Backend) Get(ctx context.Context, table, id string) (backend.Row, error) {
	var doc bson.M
	err := b.db.Collection(table).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, backend.ErrNotFound
	}
	if err != nil {
		return nil, translate(table, err)
	}
	return toRow(doc), nil
}

func (b *Backend) Insert(ctx context.Context, table string, row backend.Row) error {
	if _, err := b.db.Collection(table).InsertOne(ctx, toDoc(row)); err != nil {
		return translate(table, err)
	}
	return nil
}

func (b *Backend) Update(ctx context.Context, table, id string, row backend.Row) error {
	set := toDoc(row)
	delete(set, "_id")
	if len(set) == 0 {
		return nil
	}
	res, err := b.db.Collection(table).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return translate(table, err)
	}
	if res.MatchedCount == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, table, id string) error {
	res, err := b.db.Collection(table).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(table, err)
	}
	if res.DeletedCount == 0 {
		return backend.ErrNotFound
	}
	return nil
}

func (b *Backend) Ping(ctx context.Context) error {
	return b.db.Client().Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the created_at index used by the recent feeds and
// the evolution histogram on every given collection.
func (b *Backend) EnsureIndexes(ctx context.Context, tables []string) error {
	for _, t := range tables {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		}
		if _, err := b.db.Collection(t).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index on %s: %w", t, err)
		}
		b.log.Debug("ensured index", zap.String("collection", t), zap.String("index", "created_at_desc"))
	}
	return nil
}

// translate maps driver errors onto backend errors. Duplicate keys become
// CodeUniqueViolation so callers never need to know which backend is in use.
func translate(table string, err error) error {
	if err == nil {
		return nil
	}
	if wafflemongo.IsDup(err) {
		return &backend.Error{Code: backend.CodeUniqueViolation, Message: "duplicate key", Table: table, Err: err}
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return &backend.Error{Code: fmt.Sprintf("mongo:%d", cmdErr.Code), Message: cmdErr.Message, Table: table, Err: err}
	}
	return fmt.Errorf("mongo %s: %w", table, err)
}

func field(col string) string {
	if col == "id" {
		return "_id"
	}
	return col
}

func toDoc(row backend.Row) bson.M {
	doc := make(bson.M, len(row))
	for k, v := range row {
		doc[field(k)] = v
	}
	return doc
}

func toRow(doc bson.M) backend.Row {
	row := make(backend.Row, len(doc))
	for k, v := range doc {
		if k == "_id" {
			k = "id"
		}
		row[k] = normalize(v)
	}
	return row
}

// normalize converts driver-specific values into plain Go values so rows
// decode the same way regardless of backend.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = normalize(x)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = normalize(x)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case time.Time:
		return t.UTC()
	}
	return v
}
