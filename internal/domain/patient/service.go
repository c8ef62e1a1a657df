package patient

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/export"
	"github.com/medlab/medlab/pkg/pagination"
)

const maxAge = 150

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	now := s.now().UTC()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// Update replaces the whole record. A photo left out of the replacement is
// kept.
func (s *Service) Update(ctx context.Context, p *Patient) error {
	if err := validate(p); err != nil {
		return err
	}
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if p.Photo == "" {
		p.Photo = existing.Photo
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now().UTC()
	return s.repo.Update(ctx, p)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

var exportHeader = []string{
	"Name", "Passport Number", "Issuing Country", "Occupation", "Sex", "Age", "Medical Type", "Registered",
}

// Export writes every patient matching f to a workbook.
func (s *Service) Export(ctx context.Context, f pagination.Filter) ([]byte, error) {
	patients, _, err := s.repo.List(ctx, f, 0, 0)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, []any{
			p.Name, p.PassportNumber, p.IssuingCountry, p.Occupation, p.Sex, p.Age, p.MedicalType,
			p.CreatedAt.Format(time.RFC3339),
		})
	}
	return export.Workbook(export.Sheet{Name: "Patients", Header: exportHeader, Rows: rows})
}

func validate(p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	p.PassportNumber = strings.TrimSpace(p.PassportNumber)
	p.Sex = strings.TrimSpace(p.Sex)
	p.MedicalType = strings.ToUpper(strings.TrimSpace(p.MedicalType))

	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	if p.PassportNumber == "" {
		return apperr.Validation("passportNumber is required")
	}
	if p.Sex == "" {
		return apperr.Validation("sex is required")
	}
	if p.Age < 0 || p.Age > maxAge {
		return apperr.Validation("age must be between 0 and %d", maxAge)
	}
	if !medicalTypes[p.MedicalType] {
		return apperr.Validation("medicalType must be one of MAURITIUS, SM-VDRL, MEDICAL, FM, NORMAL")
	}
	return nil
}
