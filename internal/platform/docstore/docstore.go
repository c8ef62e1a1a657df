// Package docstore keeps domain documents in MongoDB collections.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/medlab/medlab/internal/platform/db"
	"github.com/medlab/medlab/pkg/pagination"
)

var ErrNotFound = errors.New("document not found")

// IsDuplicate reports whether err is a unique index violation (code 11000).
func IsDuplicate(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// Connect opens a client and returns the named database.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, client.Database(database), nil
}

// Check probes the client for the health endpoint.
func Check(client *mongo.Client) db.Check {
	return db.Check{
		Name: "mongo",
		Ping: func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
	}
}

// Collection stores documents of type T keyed by their "id".
type Collection[T any] struct {
	coll   *mongo.Collection
	layout layout
}

// NewCollection binds a collection. timeFields names top-level JSON keys
// holding timestamps.
func NewCollection[T any](database *mongo.Database, name string, timeFields ...string) *Collection[T] {
	return &Collection[T]{
		coll:   database.Collection(name),
		layout: layout{times: keySet(timeFields)},
	}
}

// Verbatim marks top-level JSON keys whose content is stored as JSON text,
// so client documents come back exactly as written. Such keys cannot be
// queried.
func (c *Collection[T]) Verbatim(fields ...string) *Collection[T] {
	c.layout.verbatim = keySet(fields)
	return c
}

// Unique builds a named unique index over one field.
func Unique(name, field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetName(name),
	}
}

// Index builds a named index over one field; order is 1 or -1.
func Index(name, field string, order int) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: order}},
		Options: options.Index().SetName(name),
	}
}

func (c *Collection[T]) EnsureIndexes(ctx context.Context, models ...mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	if _, err := c.coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create indexes on %s: %w", c.coll.Name(), err)
	}
	return nil
}

func (c *Collection[T]) Insert(ctx context.Context, doc *T) error {
	d, err := encode(doc, c.layout)
	if err != nil {
		return err
	}
	_, err = c.coll.InsertOne(ctx, d)
	return err
}

// Replace overwrites the whole document with the given id.
func (c *Collection[T]) Replace(ctx context.Context, id string, doc *T) error {
	d, err := encode(doc, c.layout)
	if err != nil {
		return err
	}
	res, err := c.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, d)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	return c.FindOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (c *Collection[T]) FindOne(ctx context.Context, filter bson.D) (*T, error) {
	raw, err := c.coll.FindOne(ctx, filter).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}
	var doc T
	if err := decode(raw, &doc, c.layout); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Find returns one page of matching documents and the total match count.
// A non-positive limit returns every match.
func (c *Collection[T]) Find(ctx context.Context, filter, sort bson.D, limit, offset int) ([]*T, int, error) {
	if filter == nil {
		filter = bson.D{}
	}
	total, err := c.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find()
	if len(sort) > 0 {
		opts.SetSort(sort)
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}

	cur, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var out []*T
	for cur.Next(ctx) {
		var doc T
		if err := decode(cur.Current, &doc, c.layout); err != nil {
			return nil, 0, err
		}
		out = append(out, &doc)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return out, int(total), nil
}

func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Contains is a case-insensitive substring match on field.
func Contains(field, text string) bson.E {
	return bson.E{Key: field, Value: primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}}
}

// Between bounds a time field; zero times leave that side open.
func Between(field string, from, to time.Time) (bson.E, bool) {
	rng := bson.D{}
	if !from.IsZero() {
		rng = append(rng, bson.E{Key: "$gte", Value: primitive.NewDateTimeFromTime(from)})
	}
	if !to.IsZero() {
		rng = append(rng, bson.E{Key: "$lte", Value: primitive.NewDateTimeFromTime(to)})
	}
	if len(rng) == 0 {
		return bson.E{}, false
	}
	return bson.E{Key: field, Value: rng}, true
}

// AnyOf joins alternatives with $or.
func AnyOf(alternatives ...bson.D) bson.E {
	arr := make(bson.A, len(alternatives))
	for i, a := range alternatives {
		arr[i] = a
	}
	return bson.E{Key: "$or", Value: arr}
}

// FilterDoc translates a list filter: the query text matches any of
// textFields and From/To bound timeField.
func FilterDoc(f pagination.Filter, timeField string, textFields ...string) bson.D {
	filter := bson.D{}
	if f.Query != "" && len(textFields) > 0 {
		alts := make([]bson.D, len(textFields))
		for i, field := range textFields {
			alts[i] = bson.D{Contains(field, f.Query)}
		}
		filter = append(filter, AnyOf(alts...))
	}
	var from, to time.Time
	if f.From != nil {
		from = *f.From
	}
	if f.To != nil {
		to = *f.To
	}
	if e, ok := Between(timeField, from, to); ok {
		filter = append(filter, e)
	}
	return filter
}
