package account

import (
	"context"

	"github.com/google/uuid"

	"github.com/medlab/medlab/pkg/pagination"
)

const msgDuplicateAccount = "account number already exists"

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	Update(ctx context.Context, a *Account) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Account, int, error)
}
