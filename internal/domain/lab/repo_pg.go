package lab

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
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
		return fmt.Errorf("lab report create: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_reports (id, patient_id, patient_name, lab_number, time_stamp, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rep.ID, rep.PatientID, rep.PatientName, rep.LabNumber, rep.TimeStamp, doc, rep.CreatedAt, rep.UpdatedAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Report, error) {
	var doc []byte
	err := r.conn(ctx).QueryRow(ctx, `SELECT doc FROM lab_reports WHERE id = $1`, id).Scan(&doc)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("lab report")
	} else if err != nil {
		return nil, err
	}
	return decodeReport(doc)
}

func (r *repoPG) Update(ctx context.Context, rep *Report) error {
	doc, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("lab report update: %w", err)
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE lab_reports SET patient_id = $2, patient_name = $3, lab_number = $4, time_stamp = $5, doc = $6, updated_at = $7
		WHERE id = $1`,
		rep.ID, rep.PatientID, rep.PatientName, rep.LabNumber, rep.TimeStamp, doc, rep.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lab report")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("lab report")
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Report, int, error) {
	qb := db.NewSearchQuery("lab_reports", "doc")
	qb.AddFilter(f, "time_stamp", "patient_name", "lab_number")
	qb.OrderBy("time_stamp DESC")

	var total int
	if err := r.conn(ctx).QueryRow(ctx, qb.CountSQL(), qb.CountArgs()...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, qb.DataSQL(limit, offset), qb.DataArgs(limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	reports, err := scanReports(rows)
	return reports, total, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Report, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT doc FROM lab_reports WHERE patient_id = $1 ORDER BY time_stamp DESC`, patientID)
	if err != nil {
		return nil, err
	}
	return scanReports(rows)
}

func scanReports(rows pgx.Rows) ([]*Report, error) {
	defer rows.Close()
	var reports []*Report
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		rep, err := decodeReport(doc)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

func decodeReport(doc []byte) (*Report, error) {
	var rep Report
	if err := json.Unmarshal(doc, &rep); err != nil {
		return nil, fmt.Errorf("lab report decode: %w", err)
	}
	return &rep, nil
}
