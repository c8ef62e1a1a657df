package labnumber

import (
	"context"
	"errors"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/memstore"
	"github.com/medlab/medlab/pkg/pagination"
)

type repoMemory struct {
	tbl *memstore.Table[Ticket]
}

func NewMemoryRepo() Repository {
	return &repoMemory{tbl: memstore.NewTable(
		func(t *Ticket) string { return t.ID.String() },
		memstore.Unique[Ticket]{Name: "number", Key: func(t *Ticket) string { return t.Number }},
	)}
}

func (r *repoMemory) Create(_ context.Context, t *Ticket) error {
	err := r.tbl.Insert(t)
	if memstore.IsDuplicate(err) {
		return apperr.Conflict(msgDuplicateNumber, err)
	}
	return err
}

func (r *repoMemory) GetByNumber(_ context.Context, number string) (*Ticket, error) {
	t, err := r.tbl.FindOne(func(t *Ticket) bool { return t.Number == number })
	if errors.Is(err, memstore.ErrNotFound) {
		return nil, apperr.NotFound("lab number")
	}
	return t, err
}

func (r *repoMemory) List(_ context.Context, f pagination.Filter, limit, offset int) ([]*Ticket, int, error) {
	return r.tbl.Find(
		func(t *Ticket) bool { return f.Match(t.CreatedAt, t.Number, t.Patient) },
		func(a, b *Ticket) bool { return a.CreatedAt.After(b.CreatedAt) },
		limit, offset,
	)
}
