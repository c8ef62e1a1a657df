package lab

import (
	"context"

	"github.com/google/uuid"

	"github.com/medlab/medlab/pkg/pagination"
)

// Repository stores lab reports. Lists are ordered newest timeStamp first.
type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Update(ctx context.Context, r *Report) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Report, int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Report, error)
}
