package lab

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

var timeStampDesc = bson.D{{Key: "timeStamp", Value: -1}}

type repoMongo struct {
	coll *docstore.Collection[Report]
}

// NewMongoRepo binds the labs collection and ensures its indexes.
func NewMongoRepo(ctx context.Context, database *mongo.Database) (Repository, error) {
	coll := docstore.NewCollection[Report](database, "labs", "timeStamp", "createdAt", "updatedAt")
	err := coll.EnsureIndexes(ctx,
		docstore.Index("labs_patient_id_idx", "patientId", 1),
		docstore.Index("labs_lab_number_idx", "labNumber", 1),
		docstore.Index("labs_time_stamp_idx", "timeStamp", -1),
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
		return nil, apperr.NotFound("lab report")
	}
	return rep, err
}

func (r *repoMongo) Update(ctx context.Context, rep *Report) error {
	err := r.coll.Replace(ctx, rep.ID.String(), rep)
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("lab report")
	}
	return err
}

func (r *repoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.coll.Delete(ctx, id.String())
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("lab report")
	}
	return err
}

func (r *repoMongo) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Report, int, error) {
	filter := docstore.FilterDoc(f, "timeStamp", "patientName", "labNumber")
	return r.coll.Find(ctx, filter, timeStampDesc, limit, offset)
}

func (r *repoMongo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Report, error) {
	reports, _, err := r.coll.Find(ctx, bson.D{{Key: "patientId", Value: patientID.String()}}, timeStampDesc, 0, 0)
	return reports, err
}
