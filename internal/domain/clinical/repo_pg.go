package clinical

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

func (r *repoPG) Create(ctx context.Context, rep *Report) error {
	doc, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("clinical report create: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO clinical_reports (id, patient_name, lab_number, clinical_officer_name, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rep.ID, rep.PatientName, rep.LabNumber, rep.ClinicalOfficerName, doc, rep.CreatedAt, rep.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	var doc []byte
	err := r.conn(ctx).QueryRow(ctx, `SELECT doc FROM clinical_reports WHERE id = $1`, id).Scan(&doc)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("clinical report")
	} else if err != nil {
		return nil, err
	}
	var rep Report
	if err := json.Unmarshal(doc, &rep); err != nil {
		return nil, fmt.Errorf("clinical report decode: %w", err)
	}
	return &rep, nil
}

func (r *repoPG) Update(ctx context.Context, rep *Report) error {
	doc, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("clinical report update: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinical_reports SET clinical_officer_name = $2, doc = $3, updated_at = $4
		WHERE id = $1`,
		rep.ID, rep.ClinicalOfficerName, doc, rep.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("clinical report")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM clinical_reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("clinical report")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Report, int, error) {
	qb := db.NewSearchQuery("clinical_reports", "doc")
	qb.AddFilter(f, "created_at", "patient_name", "lab_number", "clinical_officer_name")
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

	var reports []*Report
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, 0, err
		}
		var rep Report
		if err := json.Unmarshal(doc, &rep); err != nil {
			return nil, 0, fmt.Errorf("clinical report decode: %w", err)
		}
		reports = append(reports, &rep)
	}
	return reports, total, rows.Err()
}
