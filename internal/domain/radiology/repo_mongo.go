package radiology

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/docstore"
	"github.com/medlab/medlab/pkg/pagination"
)

type repoMongo struct {
	coll *docstore.Collection[Report]
}

// NewMongoRepo binds the radiologies collection and ensures its indexes.
func NewMongoRepo(ctx context.Context, database *mongo.Database) (Repository, error) {
	coll := docstore.NewCollection[Report](database, "radiologies", "timeStamp", "createdAt", "updatedAt")
	err := coll.EnsureIndexes(ctx,
		docstore.Index("radiologies_lab_number_idx", "labNumber", 1),
		docstore.Index("radiologies_time_stamp_idx", "timeStamp", -1),
	)
	if err != nil {
		return nil, err
	}
	return &repoMongo{coll: coll}, nil
}

func (r *repoMongo) Create(ctx context.Context, rep *Report) error {
	return r.coll.Insert(ctx, rep)
}

func (r *repoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	rep, err := r.coll.Get(ctx, id.String())
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, apperr.NotFound("radiology report")
	}
	return rep, err
}

func (r *repoMongo) Update(ctx context.Context, rep *Report) error {
	err := r.coll.Replace(ctx, rep.ID.String(), rep)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("radiology report")
	}
	return err
}

func (r *repoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.coll.Delete(ctx, id.String())
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("radiology report")
	}
	return err
}

func (r *repoMongo) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Report, int, error) {
	filter := docstore.FilterDoc(f, "timeStamp", "patientName", "labNumber")
	return r.coll.Find(ctx, filter, bson.D{{Key: "timeStamp", Value: -1}}, limit, offset)
}
