package patient

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

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("patient create: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, name, passport_number, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Name, p.PassportNumber, doc, p.CreatedAt, p.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict(msgDuplicatePassport, err)
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var doc []byte
	err := r.conn(ctx).QueryRow(ctx, `SELECT doc FROM patients WHERE id = $1`, id).Scan(&doc)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("patient")
	} else if err != nil {
		return nil, err
	}
	var p Patient
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("patient decode: %w", err)
	}
	return &p, nil
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("patient update: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET name = $2, passport_number = $3, doc = $4, updated_at = $5
		WHERE id = $1`,
		p.ID, p.Name, p.PassportNumber, doc, p.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict(msgDuplicatePassport, err)
	} else if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("patient")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Patient, int, error) {
	qb := db.NewSearchQuery("patients", "doc")
	qb.AddFilter(f, "created_at", "name", "passport_number")
	qb.OrderBy("created_at DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(limit, offset), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, 0, err
		}
		var p Patient
		if err := json.Unmarshal(doc, &p); err != nil {
			return nil, 0, fmt.Errorf("patient decode: %w", err)
		}
		patients = append(patients, &p)
	}
	return patients, total, rows.Err()
}
