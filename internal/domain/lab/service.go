package lab

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
	"github.com/medlab/medlab/internal/platform/export"
	"github.com/medlab/medlab/internal/platform/render"
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

// NewService builds the lab report service. When numbers is non-nil every
// report must carry a lab number it knows.
func NewService(repo Repository, numbers NumberLookup) *Service {
	return &Service{repo: repo, numbers: numbers, registry: panel.Default, now: time.Now}
}

// Create normalizes and stores a new report. The returned paths name the
// input fields that were dropped.
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
		return nil, fmt.Errorf("lab snapshot: %w", err)
	}
	return b, nil
}

// Update overwrites the whole report. Panels left out of the replacement
// come back defaulted; an omitted image is kept.
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

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Report, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// Render loads a report and lays it out as display sections.
func (s *Service) Render(ctx context.Context, id uuid.UUID) (render.Document, error) {
	rep, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return render.Document{}, err
	}
	return s.document(rep), nil
}

var exportHeader = []string{
	"Lab Number", "Patient Name", "Time Stamp", "Other Aspects Fit", "Overall Status", "Lab Superintendent",
}

// Export writes every report matching f to a workbook: one summary row per
// report and the flattened panels on a second sheet.
func (s *Service) Export(ctx context.Context, f pagination.Filter) ([]byte, error) {
	reports, _, err := s.repo.List(ctx, f, 0, 0)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(reports))
	var details [][]any
	for _, rep := range reports {
		rows = append(rows, []any{
			rep.LabNumber, rep.PatientName, rep.TimeStamp.Format(time.RFC3339),
			rep.LabRemarks.FitnessEvaluation.OtherAspectsFit,
			rep.LabRemarks.FitnessEvaluation.OverallStatus,
			rep.LabRemarks.LabSuperintendent.Name,
		})
		details = append(details, export.DetailRows(rep.LabNumber, s.document(rep).Sections)...)
	}
	return export.Workbook(
		export.Sheet{Name: "Lab Reports", Header: exportHeader, Rows: rows},
		export.Sheet{Name: "Details", Header: export.DetailHeader, Rows: details},
	)
}

type patientBlock struct {
	PatientName string `json:"patientName"`
	LabNumber   string `json:"labNumber"`
	TimeStamp   string `json:"timeStamp"`
}

func (s *Service) document(rep *Report) render.Document {
	doc := render.Document{Title: "Lab Report " + rep.LabNumber}
	doc.Sections = append(doc.Sections, render.Render("Patient", patientBlock{
		PatientName: rep.PatientName,
		LabNumber:   rep.LabNumber,
		TimeStamp:   rep.TimeStamp.Format(time.RFC3339),
	}))
	rep.LabPanels.Each(func(name string, p panel.Panel) {
		doc.Sections = append(doc.Sections, render.Render(s.registry.Title(name), p))
	})
	doc.Sections = append(doc.Sections, render.Render("Lab Remarks", rep.LabRemarks))
	return doc
}

func (s *Service) build(ctx context.Context, in *Input) (*Report, []string, error) {
	in.PatientName = strings.TrimSpace(in.PatientName)
	in.LabNumber = strings.TrimSpace(in.LabNumber)
	if in.PatientName == "" {
		return nil, nil, apperr.Validation("patientName is required")
	}
	if in.LabNumber == "" {
		return nil, nil, apperr.Validation("labNumber is required")
	}
	if err := s.checkNumber(ctx, in.LabNumber); err != nil {
		return nil, nil, err
	}

	panels, dropped := s.registry.NormalizeLab(in.Panels)
	dropped = append(in.Unknown, dropped...)
	if len(dropped) > 0 {
		zerolog.Ctx(ctx).Warn().
			Str("lab_number", in.LabNumber).
			Strs("dropped", dropped).
			Msg("lab report fields dropped")
	}

	rep := &Report{
		PatientID:    in.PatientID,
		PatientName:  in.PatientName,
		LabNumber:    in.LabNumber,
		PatientImage: in.PatientImage,
		LabPanels:    panels,
		LabRemarks:   in.LabRemarks,
	}
	if in.TimeStamp != nil {
		rep.TimeStamp = in.TimeStamp.UTC()
	} else {
		rep.TimeStamp = s.now().UTC()
	}
	return rep, dropped, nil
}

func (s *Service) checkNumber(ctx context.Context, number string) error {
	if s.numbers == nil {
		return nil
	}
	_, err := s.numbers.Lookup(ctx, number)
	if apperr.IsNotFound(err) {
		return apperr.Validation("lab number %s has not been issued", number)
	}
	return err
}
