package account

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/export"
	"github.com/medlab/medlab/pkg/pagination"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, in Input) (*Account, error) {
	a, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	a.ID = uuid.New()
	a.CreatedAt = now
	a.UpdatedAt = now
	if a.PaymentDate.IsZero() {
		a.PaymentDate = now
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rederive(ctx, a)
	return a, nil
}

// Update replaces the editable fields and re-derives the status. The
// payment date is kept unless the input carries one.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Account, error) {
	a, err := s.fromInput(in)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.ID = id
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = s.now().UTC()
	if a.PaymentDate.IsZero() {
		a.PaymentDate = existing.PaymentDate
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Account, int, error) {
	accounts, total, err := s.repo.List(ctx, f, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for _, a := range accounts {
		rederive(ctx, a)
	}
	return accounts, total, nil
}

// Summarize totals every ledger row matching f.
func (s *Service) Summarize(ctx context.Context, f pagination.Filter) (*Summary, error) {
	accounts, _, err := s.List(ctx, f, 0, 0)
	if err != nil {
		return nil, err
	}
	return summarize(accounts), nil
}

func summarize(accounts []*Account) *Summary {
	sum := &Summary{}
	for _, a := range accounts {
		sum.Count++
		if a.PaymentStatus == StatusPaid {
			sum.PaidCount++
		} else {
			sum.PendingCount++
			sum.Outstanding += a.AmountDue - a.AmountPaid
		}
		sum.TotalDue += a.AmountDue
		sum.TotalPaid += a.AmountPaid
		sum.TotalCommission += a.Commission
		sum.TotalXray += a.XrayPayment
	}
	return sum
}

var exportHeader = []string{
	"Patient Name", "Account Number", "Mode Of Payment", "Commission", "Xray Payment",
	"Amount Due", "Amount Paid", "Payment Status", "Payment Date",
}

func (s *Service) Export(ctx context.Context, f pagination.Filter) ([]byte, error) {
	accounts, _, err := s.List(ctx, f, 0, 0)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(accounts))
	for _, a := range accounts {
		rows = append(rows, []any{
			a.PatientName, a.AccountNumber, a.ModeOfPayment, a.Commission, a.XrayPayment,
			a.AmountDue, a.AmountPaid, a.PaymentStatus, a.PaymentDate.Format(time.RFC3339),
		})
	}
	sum := summarize(accounts)
	return export.Workbook(
		export.Sheet{Name: "Payments", Header: exportHeader, Rows: rows},
		export.Sheet{
			Name:   "Summary",
			Header: []string{"Records", "Paid", "Pending", "Total Due", "Total Paid", "Outstanding", "Commission", "Xray"},
			Rows: [][]any{{
				sum.Count, sum.PaidCount, sum.PendingCount, sum.TotalDue, sum.TotalPaid,
				sum.Outstanding, sum.TotalCommission, sum.TotalXray,
			}},
		},
	)
}

func (s *Service) fromInput(in Input) (*Account, error) {
	a := &Account{
		PatientName:   strings.TrimSpace(in.PatientName),
		AccountNumber: strings.TrimSpace(in.AccountNumber),
		ModeOfPayment: strings.ToLower(strings.TrimSpace(in.ModeOfPayment)),
		Commission:    in.Commission,
		XrayPayment:   in.XrayPayment,
	}
	if a.PatientName == "" {
		return nil, apperr.Validation("patientName is required")
	}
	if a.AccountNumber == "" {
		return nil, apperr.Validation("accountNumber is required")
	}
	if in.AmountDue == nil || in.AmountPaid == nil {
		return nil, apperr.Validation("amountDue and amountPaid are required")
	}
	a.AmountDue, a.AmountPaid = *in.AmountDue, *in.AmountPaid
	if a.AmountDue < 0 || a.AmountPaid < 0 || a.Commission < 0 || a.XrayPayment < 0 {
		return nil, apperr.Validation("amounts must not be negative")
	}
	if a.ModeOfPayment != "" && !modes[a.ModeOfPayment] {
		return nil, apperr.Validation("modeOfPayment must be one of cash, paybill, invoice")
	}
	if in.PaymentDate != nil {
		a.PaymentDate = in.PaymentDate.UTC()
	}
	a.Derive()
	return a, nil
}

func rederive(ctx context.Context, a *Account) {
	stored := a.PaymentStatus
	a.Derive()
	if stored != a.PaymentStatus {
		zerolog.Ctx(ctx).Warn().
			Str("account_id", a.ID.String()).
			Str("stored", stored).
			Str("derived", a.PaymentStatus).
			Msg("stale payment status corrected on read")
	}
}
