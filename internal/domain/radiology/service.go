package radiology

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlab/medlab/internal/domain/labnumber"
	"github.com/medlab/medlab/internal/domain/panel"
	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/pkg/pagination"
)

// NumberLookup resolves an issued lab number.
type NumberLookup interface {
	Lookup(ctx context.Context, number string) (*labnumber.Ticket, error)
}

type Service struct {
	repo     Repository
	numbers  NumberLookup
	registry *panel.Registry
	now      func() time.Time
}

// NewService builds the radiology service. A nil numbers skips the issued
// lab number check.
func NewService(repo Repository, numbers NumberLookup) *Service {
	return &Service{repo: repo, numbers: numbers, registry: panel.Default, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in *Input) (*Report, []string, error) {
	rep, dropped, err := s.build(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	now := s.now().UTC()
	rep.ID = uuid.New()
	rep.CreatedAt = now
	rep.UpdatedAt = now
	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, nil, err
	}
	return rep, dropped, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

// Snapshot returns the stored report as a JSON document.
func (s *Service) Snapshot(ctx context.Context, id uuid.UUID) (json.RawMessage, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("radiology snapshot: %w", err)
	}
	return b, nil
}

// Update overwrites the whole report, keeping an omitted image.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in *Input) (*Report, []string, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rep, dropped, err := s.build(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	if rep.PatientImage == "" {
		rep.PatientImage = existing.PatientImage
	}
	if in.TimeStamp == nil {
		rep.TimeStamp = existing.TimeStamp
	}
	rep.ID = existing.ID
	rep.CreatedAt = existing.CreatedAt
	rep.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, rep); err != nil {
		return nil, nil, err
	}
	return rep, dropped, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Report, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) build(ctx context.Context, in *Input) (*Report, []string, error) {
	in.PatientName = strings.TrimSpace(in.PatientName)
	in.LabNumber = strings.TrimSpace(in.LabNumber)
	in.ChestXRayTest = strings.TrimSpace(in.ChestXRayTest)
	in.HeafMantouxTest = strings.TrimSpace(in.HeafMantouxTest)

	var missing []string
	if in.PatientName == "" {
		missing = append(missing, "patientName")
	}
	if in.LabNumber == "" {
		missing = append(missing, "labNumber")
	}
	if in.ChestXRayTest == "" {
		missing = append(missing, "chestXRayTest")
	}
	if in.HeafMantouxTest == "" {
		missing = append(missing, "heafMantouxTest")
	}
	if raw, ok := in.Panels[panel.Area1]; !ok || string(raw) == "null" {
		missing = append(missing, panel.Area1)
	}
	if len(missing) > 0 {
		return nil, nil, apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}
	if s.numbers != nil {
		_, err := s.numbers.Lookup(ctx, in.LabNumber)
		if apperr.IsNotFound(err) {
			return nil, nil, apperr.Validation("lab number %s has not been issued", in.LabNumber)
		} else if err != nil {
			return nil, nil, err
		}
	}

	panels, dropped := s.registry.NormalizeLab(in.Panels)
	dropped = append(in.Unknown, dropped...)
	if len(dropped) > 0 {
		zerolog.Ctx(ctx).Warn().
			Str("lab_number", in.LabNumber).
			Strs("dropped", dropped).
			Msg("radiology report fields dropped")
	}

	rep := &Report{
		PatientID:       in.PatientID,
		PatientName:     in.PatientName,
		LabNumber:       in.LabNumber,
		PatientImage:    in.PatientImage,
		ChestXRayTest:   in.ChestXRayTest,
		HeafMantouxTest: in.HeafMantouxTest,
		LabPanels:       panels,
		LabRemarks:      in.LabRemarks,
	}
	if in.TimeStamp != nil {
		rep.TimeStamp = in.TimeStamp.UTC()
	} else {
		rep.TimeStamp = s.now().UTC()
	}
	return rep, dropped, nil
}
