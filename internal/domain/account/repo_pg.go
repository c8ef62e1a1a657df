package account

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlab/medlab/internal/platform/apperr"
	"github.com/medlab/medlab/internal/platform/db"
	"github.com/medlab/medlab/pkg/pagination"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Create(ctx context.Context, a *Account) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("account create: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO accounts (id, patient_name, account_number, payment_date, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.PatientName, a.AccountNumber, a.PaymentDate, doc, a.CreatedAt, a.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict(msgDuplicateAccount, err)
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	var doc []byte
	err := r.conn(ctx).QueryRow(ctx, `SELECT doc FROM accounts WHERE id = $1`, id).Scan(&doc)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("payment record")
	} else if err != nil {
		return nil, err
	}
	var a Account
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("account decode: %w", err)
	}
	return &a, nil
}

func (r *repoPG) Update(ctx context.Context, a *Account) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("account update: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE accounts SET patient_name = $2, account_number = $3, payment_date = $4, doc = $5, updated_at = $6
		WHERE id = $1`,
		a.ID, a.PatientName, a.AccountNumber, a.PaymentDate, doc, a.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict(msgDuplicateAccount, err)
	} else if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("payment record")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("payment record")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Account, int, error) {
	qb := db.NewSearchQuery("accounts", "doc")
	qb.AddFilter(f, "payment_date", "patient_name", "account_number")
	qb.OrderBy("payment_date DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(limit, offset), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []*Account
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, 0, err
		}
		var a Account
		if err := json.Unmarshal(doc, &a); err != nil {
			return nil, 0, fmt.Errorf("account decode: %w", err)
		}
		accounts = append(accounts, &a)
	}
	return accounts, total, rows.Err()
}
