package patient

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
	coll *docstore.Collection[Patient]
}

// NewMongoRepo binds the patients collection and ensures its indexes.
func NewMongoRepo(ctx context.Context, database *mongo.Database) (Repository, error) {
	coll := docstore.NewCollection[Patient](database, "patients", "createdAt", "updatedAt")
	err := coll.EnsureIndexes(ctx,
		docstore.Unique("patients_passport_number_key", "passportNumber"),
		docstore.Index("patients_created_at_idx", "createdAt", -1),
	)
	if err != nil {
		return nil, err
	}
	return &repoMongo{coll: coll}, nil
}

func (r *repoMongo) Create(ctx context.Context, p *Patient) error {
	err := r.coll.Insert(ctx, p)
	if docstore.IsDuplicate(err) {
		return apperr.Conflict(msgDuplicatePassport, err)
	}
	return err
}

func (r *repoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := r.coll.Get(ctx, id.String())
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, apperr.NotFound("patient")
	}
	return p, err
}

func (r *repoMongo) Update(ctx context.Context, p *Patient) error {
	err := r.coll.Replace(ctx, p.ID.String(), p)
	switch {
	case docstore.IsDuplicate(err):
		return apperr.Conflict(msgDuplicatePassport, err)
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.NotFound("patient")
	}
	return err
}

func (r *repoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.coll.Delete(ctx, id.String())
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("patient")
	}
	return err
}

func (r *repoMongo) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Patient, int, error) {
	filter := docstore.FilterDoc(f, "createdAt", "name", "passportNumber")
	return r.coll.Find(ctx, filter, bson.D{{Key: "createdAt", Value: -1}}, limit, offset)
}
