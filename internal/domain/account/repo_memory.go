package account

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/memstore"
	"github.com/medlab/medlab/pkg/pagination"
)

type repoMemory struct {
	tbl *memstore.Table[Account]
}

func NewMemoryRepo() Repository {
	return &repoMemory{tbl: memstore.NewTable(
		func(a *Account) string { return a.ID.String() },
		memstore.Unique[Account]{Name: "accountNumber", Key: func(a *Account) string { return a.AccountNumber }},
	)}
}

func (r *repoMemory) Create(_ context.Context, a *Account) error {
	err := r.tbl.Insert(a)
	if memstore.IsDuplicate(err) {
		return apperr.Conflict(msgDuplicateAccount, err)
	}
	return err
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*Account, error) {
	a, err := r.tbl.Get(id.String())
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, apperr.NotFound("payment record")
	}
	return a, err
}

func (r *repoMemory) Update(_ context.Context, a *Account) error {
	err := r.tbl.Replace(a.ID.String(), a)
	switch {
	case memstore.IsDuplicate(err):
		return apperr.Conflict(msgDuplicateAccount, err)
	case errors.Is(err, memstore.ErrNotFound):
		return apperr.NotFound("payment record")
	}
	return err
}

func (r *repoMemory) Delete(_ context.Context, id uuid.UUID) error {
	err := r.tbl.Delete(id.String())
	if errors.Is(err, memstore.ErrNotFound) {
		return apperr.NotFound("payment record")
	}
	return err
}

func (r *repoMemory) List(_ context.Context, f pagination.Filter, limit, offset int) ([]*Account, int, error) {
	return r.tbl.Find(
		func(a *Account) bool { return f.Match(a.PaymentDate, a.PatientName, a.AccountNumber) },
		func(a, b *Account) bool { return a.PaymentDate.After(b.PaymentDate) },
		limit, offset,
	)
}
