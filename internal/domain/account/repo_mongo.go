package account

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
	coll *docstore.Collection[Account]
}

func NewMongoRepo(ctx context.Context, database *mongo.Database) (Repository, error) {
	coll := docstore.NewCollection[Account](database, "accounts", "paymentDate", "createdAt", "updatedAt")
	err := coll.EnsureIndexes(ctx,
		docstore.Unique("accounts_account_number_key", "accountNumber"),
		docstore.Index("accounts_payment_date_idx", "paymentDate", -1),
	)
	if err != nil {
		return nil, err
	}
	return &repoMongo{coll: coll}, nil
}

func (r *repoMongo) Create(ctx context.Context, a *Account) error {
	err := r.coll.Insert(ctx, a)
	if docstore.IsDuplicate(err) {
		return apperr.Conflict(msgDuplicateAccount, err)
	}
	return err
}

func (r *repoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	a, err := r.coll.Get(ctx, id.String())
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, apperr.NotFound("payment record")
	}
	return a, err
}

func (r *repoMongo) Update(ctx context.Context, a *Account) error {
	err := r.coll.Replace(ctx, a.ID.String(), a)
	switch {
	case docstore.IsDuplicate(err):
		return apperr.Conflict(msgDuplicateAccount, err)
	case errors.Is(err, docstore.ErrNotFound):
		return apperr.NotFound("payment record")
	}
	return err
}

func (r *repoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.coll.Delete(ctx, id.String())
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("payment record")
	}
	return err
}

func (r *repoMongo) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Account, int, error) {
	filter := docstore.FilterDoc(f, "paymentDate", "patientName", "accountNumber")
	return r.coll.Find(ctx, filter, bson.D{{Key: "paymentDate", Value: -1}}, limit, offset)
}
