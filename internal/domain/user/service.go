package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/auth"
)

const minPasswordLen = 6

var errBadCredentials = apperr.Unauthorized("invalid email or password")

type Service struct {
	repo   Repository
	tokens *auth.Tokens
	now    func() time.Time
}

func NewService(repo Repository, tokens *auth.Tokens) *Service {
	return &Service{repo: repo, tokens: tokens, now: time.Now}
}

// Register creates a user. The email is stored lowercased and the password
// only as its bcrypt hash.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	switch {
	case name == "":
		return nil, apperr.Validation("name is required")
	case !strings.Contains(email, "@"):
		return nil, apperr.Validation("a valid email is required")
	case len(req.Password) < minPasswordLen:
		return nil, apperr.Validation("password must be at least %d characters", minPasswordLen)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("user_id", u.ID.String()).Msg("user registered")
	return u, nil
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords fail the same way.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	u, err := s.repo.GetByEmail(ctx, normalizeEmail(req.Email))
	if apperr.IsNotFound(err) {
		return nil, errBadCredentials
	} else if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	token, exp, err := s.tokens.Issue(u.ID.String(), u.Email, u.Name)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, ExpiresAt: exp, User: u}, nil
}

func (s *Service) Profile(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
