package user

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/docstore"
)

type repoMongo struct {
	coll *docstore.Collection[record]
}

// NewMongoRepo binds the users collection and ensures its indexes.
func NewMongoRepo(ctx context.Context, database *mongo.Database) (Repository, error) {
	coll := docstore.NewCollection[record](database, "users", "createdAt", "updatedAt")
	if err := coll.EnsureIndexes(ctx, docstore.Unique("users_email_key", "email")); err != nil {
		return nil, err
	}
	return &repoMongo{coll: coll}, nil
}

func (r *repoMongo) Create(ctx context.Context, u *User) error {
	err := r.coll.Insert(ctx, toRecord(u))
	if docstore.IsDuplicate(err) {
		return apperr.Conflict(msgDuplicateEmail, err)
	}
	return err
}

func (r *repoMongo) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
}

func (r *repoMongo) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (r *repoMongo) findOne(ctx context.Context, filter bson.D) (*User, error) {
	rec, err := r.coll.FindOne(ctx, filter)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, apperr.NotFound("user")
	} else if err != nil {
		return nil, err
	}
	return rec.user(), nil
}

func (r *repoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.coll.Delete(ctx, id.String())
	if errors.Is(err, docstore.ErrNotFound) {
		return apperr.NotFound("user")
	}
	return err
}

func (r *repoMongo) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	records, total, err := r.coll.Find(ctx, nil, bson.D{{Key: "createdAt", Value: -1}}, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return users(records), total, nil
}
