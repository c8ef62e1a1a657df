package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/memstore"
)

type repoMemory struct {
	tbl *memstore.Table[record]
}

func NewMemoryRepo() Repository {
	return &repoMemory{tbl: memstore.NewTable(
		func(r *record) string { return r.ID.String() },
		memstore.Unique[record]{Name: "email", Key: func(r *record) string { return r.Email }},
	)}
}

func (r *repoMemory) Create(_ context.Context, u *User) error {
	err := r.tbl.Insert(toRecord(u))
	if memstore.IsDuplicate(err) {
		return apperr.Conflict(msgDuplicateEmail, err)
	}
	return err
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	rec, err := r.tbl.Get(id.String())
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, apperr.NotFound("user")
	} else if err != nil {
		return nil, err
	}
	return rec.user(), nil
}

func (r *repoMemory) GetByEmail(_ context.Context, email string) (*User, error) {
	rec, err := r.tbl.FindOne(func(r *record) bool { return r.Email == email })
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, apperr.NotFound("user")
	} else if err != nil {
		return nil, err
	}
	return rec.user(), nil
}

func (r *repoMemory) Delete(_ context.Context, id uuid.UUID) error {
	err := r.tbl.Delete(id.String())
	if errors.Is(err, memstore.ErrNotFound) {
		return apperr.NotFound("user")
	}
	return err
}

func (r *repoMemory) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	records, total, err := r.tbl.Find(nil, func(a, b *record) bool { return a.CreatedAt.After(b.CreatedAt) }, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return users(records), total, nil
}
