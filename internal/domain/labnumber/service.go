package labnumber

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/pkg/pagination"
)

// maxAttempts bounds retries when a generated number is already taken.
const maxAttempts = 3

type Service struct {
	repo Repository
	gen  Generator
	now  func() time.Time
}

func NewService(repo Repository, gen Generator) *Service {
	return &Service{repo: repo, gen: gen, now: time.Now}
}

// Issue stores a lab number for a patient. A supplied number that is taken
// fails with a conflict; a generated one is regenerated a few times first.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*Ticket, error) {
	req.Patient = strings.TrimSpace(req.Patient)
	req.Number = strings.TrimSpace(req.Number)
	if req.Patient == "" {
		return nil, apperr.Validation("patient is required")
	}

	if req.Number != "" {
		return s.store(ctx, req.Number, req.Patient)
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		number, err := s.gen.Generate(ctx, req)
		if err != nil {
			return nil, err
		}
		t, err := s.store(ctx, number, req.Patient)
		if !apperr.IsConflict(err) {
			return t, err
		}
		zerolog.Ctx(ctx).Warn().Str("number", number).Int("attempt", attempt+1).Msg("generated lab number already taken")
		lastErr = err
	}
	return nil, lastErr
}

func (s *Service) store(ctx context.Context, number, patient string) (*Ticket, error) {
	t := &Ticket{
		ID:        uuid.New(),
		Number:    number,
		Patient:   patient,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Lookup(ctx context.Context, number string) (*Ticket, error) {
	return s.repo.GetByNumber(ctx, strings.TrimSpace(number))
}

func (s *Service) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Ticket, int, error) {
	return s.repo.List(ctx, f, limit, offset)
}
