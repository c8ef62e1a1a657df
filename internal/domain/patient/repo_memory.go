package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/memstore"
	"github.com/medlab/medlab/pkg/pagination"
)

type repoMemory struct {
	tbl *memstore.Table[Patient]
}

func NewMemoryRepo() Repository {
	return &repoMemory{tbl: memstore.NewTable(
		func(p *Patient) string { return p.ID.String() },
		memstore.Unique[Patient]{Name: "passportNumber", Key: func(p *Patient) string { return p.PassportNumber }},
	)}
}

func (r *repoMemory) Create(_ context.Context, p *Patient) error {
	err := r.tbl.Insert(p)
	if memstore.IsDuplicate(err) {
		return apperr.Conflict(msgDuplicatePassport, err)
	}
	return err
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, err := r.tbl.Get(id.String())
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, apperr.NotFound("patient")
	}
	return p, err
}

func (r *repoMemory) Update(_ context.Context, p *Patient) error {
	err := r.tbl.Replace(p.ID.String(), p)
	switch {
	case memstore.IsDuplicate(err):
		return apperr.Conflict(msgDuplicatePassport, err)
	case errors.Is(err, memstore.ErrNotFound):
		return apperr.NotFound("patient")
	}
	return err
}

func (r *repoMemory) Delete(_ context.Context, id uuid.UUID) error {
	err := r.tbl.Delete(id.String())
	if errors.Is(err, memstore.ErrNotFound) {
		return apperr.NotFound("patient")
	}
	return err
}

func (r *repoMemory) List(_ context.Context, f pagination.Filter, limit, offset int) ([]*Patient, int, error) {
	return r.tbl.Find(
		func(p *Patient) bool { return f.Match(p.CreatedAt, p.Name, p.PassportNumber) },
		func(a, b *Patient) bool { return a.CreatedAt.After(b.CreatedAt) },
		limit, offset,
	)
}
