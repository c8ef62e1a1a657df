package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/medlab/medlab/pkg/pagination"
)

const msgDuplicatePassport = "passport number already exists"

// Repository stores patients. Implementations report a reused passport
// number as an apperr conflict and a missing id as apperr not-found.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Patient, int, error)
}
