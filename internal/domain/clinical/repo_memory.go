package clinical

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/memstore"
	"github.com/medlab/medlab/pkg/pagination"
)

type repoMemory struct {
	tbl *memstore.Table[Report]
}

func NewMemoryRepo() Repository {
	return &repoMemory{tbl: memstore.NewTable(func(r *Report) string { return r.ID.String() })}
}

func (r *repoMemory) Create(_ context.Context, rep *Report) error {
	return r.tbl.Insert(rep)
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*Report, error) {
	rep, err := r.tbl.Get(id.String())
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, apperr.NotFound("clinical report")
	}
	return rep, err
}

func (r *repoMemory) Update(_ context.Context, rep *Report) error {
	err := r.tbl.Replace(rep.ID.String(), rep)
	if errors.Is(err, memstore.ErrNotFound) {
		return apperr.NotFound("clinical report")
	}
	return err
}

func (r *repoMemory) Delete(_ context.Context, id uuid.UUID) error {
	err := r.tbl.Delete(id.String())
	if errors.Is(err, memstore.ErrNotFound) {
		return apperr.NotFound("clinical report")
	}
	return err
}

func (r *repoMemory) List(_ context.Context, f pagination.Filter, limit, offset int) ([]*Report, int, error) {
	return r.tbl.Find(
		func(rep *Report) bool {
			return f.Match(rep.CreatedAt, rep.PatientName, rep.LabNumber, rep.ClinicalOfficerName)
		},
		func(a, b *Report) bool { return a.CreatedAt.After(b.CreatedAt) },
		limit, offset,
	)
}
