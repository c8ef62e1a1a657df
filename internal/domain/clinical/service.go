package clinical

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlab/medlab/internal/domain/panel"
	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/db"
	"github.com/medlab/medlab/pkg/pagination"
)

// Snapshotter loads a stored report as a JSON document.
type Snapshotter interface {
	Snapshot(ctx context.Context, id uuid.UUID) (json.RawMessage, error)
}

type Service struct {
	repo     Repository
	tx       db.Transactor
	sources  map[string]Snapshotter
	composer *Composer
	registry *panel.Registry
	now      func() time.Time
}

// NewService builds the clinical service. sources maps a source kind
// (SourceLab, SourceRadiology) to the service holding those reports.
func NewService(repo Repository, tx db.Transactor, sources map[string]Snapshotter) *Service {
	if tx == nil {
		tx = db.NoTx{}
	}
	return &Service{
		repo:     repo,
		tx:       tx,
		sources:  sources,
		composer: NewComposer(panel.Default),
		registry: panel.Default,
		now:      time.Now,
	}
}

// Create composes and stores a new clinical report. An explicit
// selectedReport is used as given; otherwise the source report is read and
// the report written in one unit of work.
func (s *Service) Create(ctx context.Context, in *Input) (*Report, []string, error) {
	var (
		rep     *Report
		dropped []string
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		snapshot := in.SelectedReport
		if absent(snapshot) && in.Source != nil {
			snap, err := s.fetch(ctx, in.Source)
			if err != nil {
				return err
			}
			snapshot = snap
		}
		r, d, err := s.composer.Compose(snapshot, in)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		r.ID = uuid.New()
		r.Source = in.Source
		r.CreatedAt = now
		r.UpdatedAt = now
		if err := s.repo.Create(ctx, r); err != nil {
			return err
		}
		rep, dropped = r, d
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	s.warnDropped(ctx, rep, dropped)
	return rep, dropped, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

// Update recomposes the examination part of a report. The stored snapshot
// and its source are kept whatever the request carries.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in *Input) (*Report, []string, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rep, dropped, err := s.composer.Compose(existing.SelectedReport, in)
	if err != nil {
		return nil, nil, err
	}
	rep.ID = existing.ID
	rep.Source = existing.Source
	rep.CreatedAt = existing.CreatedAt
	rep.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, rep); err != nil {
		return nil, nil, err
	}
	s.warnDropped(ctx, rep, dropped)
	return rep, dropped, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Report, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}

func (s *Service) fetch(ctx context.Context, src *Source) (json.RawMessage, error) {
	loader, ok := s.sources[src.Kind]
	if !ok {
		return nil, apperr.Validation("source kind must be %q or %q", SourceLab, SourceRadiology)
	}
	if src.ID == uuid.Nil {
		return nil, apperr.Validation("source id is required")
	}
	return loader.Snapshot(ctx, src.ID)
}

func (s *Service) warnDropped(ctx context.Context, rep *Report, dropped []string) {
	if len(dropped) == 0 {
		return
	}
	zerolog.Ctx(ctx).Warn().
		Str("clinical_report_id", rep.ID.String()).
		Strs("dropped", dropped).
		Msg("clinical report fields dropped")
}
