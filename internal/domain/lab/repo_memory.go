package lab

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

func latestFirst(a, b *Report) bool { return a.TimeStamp.After(b.TimeStamp) }

func (r *repoMemory) Create(_ context.Context, rep *Report) error {
	return r.tbl.Insert(rep)
}

func (r *repoMemory) GetByID(_ context.Context, id uuid.UUID) (*Report, error) {
	rep, err := r.tbl.Get(id.String())
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, apperr.NotFound("lab report")
	}
	return rep, err
}

func (r *repoMemory) Update(_ context.Context, rep *Report) error {
	err := r.tbl.Replace(rep.ID.String(), rep)
	if errors.Is(err, memstore.ErrNotFound) {
		return apperr.NotFound("lab report")
	}
	return err
}

func (r *repoMemory) Delete(_ context.Context, id uuid.UUID) error {
	err := r.tbl.Delete(id.String())
	if errors.Is(err, memstore.ErrNotFound) {
		return apperr.NotFound("lab report")
	}
	return err
}

func (r *repoMemory) List(_ context.Context, f pagination.Filter, limit, offset int) ([]*Report, int, error) {
	return r.tbl.Find(
		func(rep *Report) bool { return f.Match(rep.TimeStamp, rep.PatientName, rep.LabNumber) },
		latestFirst, limit, offset,
	)
}

func (r *repoMemory) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Report, error) {
	reports, _, err := r.tbl.Find(
		func(rep *Report) bool { return rep.PatientID != nil && *rep.PatientID == patientID },
		latestFirst, 0, 0,
	)
	return reports, err
}
