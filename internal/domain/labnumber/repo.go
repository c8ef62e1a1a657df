package labnumber

import (
	"context"

	"github.com/medlab/medlab/pkg/pagination"
)

const msgDuplicateNumber = "lab number already exists"

type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByNumber(ctx context.Context, number string) (*Ticket, error)
	List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Ticket, int, error)
}
