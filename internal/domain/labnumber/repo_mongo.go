package labnumber

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/docstore"
	"github.com/medlab/medlab/pkg/pagination"
)

type repoMongo struct {
	coll *docstore.Collection[Ticket]
}

func NewMongoRepo(ctx context.Context, database *mongo.Database) (Repository, error) {
	coll := docstore.NewCollection[Ticket](database, "labnumbers", "createdAt")
	err := coll.EnsureIndexes(ctx,
		docstore.Unique("lab_numbers_number_key", "number"),
		docstore.Index("lab_numbers_created_at_idx", "createdAt", -1),
	)
	if err != nil {
		return nil, err
	}
	return &repoMongo{coll: coll}, nil
}

func (r *repoMongo) Create(ctx context.Context, t *Ticket) error {
	err := r.coll.Insert(ctx, t)
	if docstore.IsDuplicate(err) {
		return apperr.Conflict(msgDuplicateNumber, err)
	}
	return err
}

func (r *repoMongo) GetByNumber(ctx context.Context, number string) (*Ticket, error) {
	t, err := r.coll.FindOne(ctx, bson.D{{Key: "number", Value: number}})
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, apperr.NotFound("lab number")
	}
	return t, err
}

func (r *repoMongo) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Ticket, int, error) {
	filter := docstore.FilterDoc(f, "createdAt", "number", "patient")
	return r.coll.Find(ctx, filter, bson.D{{Key: "createdAt", Value: -1}}, limit, offset)
}
