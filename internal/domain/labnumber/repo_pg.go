package labnumber

import (
	"context"

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

const ticketCols = `id, number, patient, created_at`

func (r *repoPG) Create(ctx context.Context, t *Ticket) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO lab_numbers (id, number, patient, created_at)
		VALUES ($1, $2, $3, $4)`,
		t.ID, t.Number, t.Patient, t.CreatedAt)
	if db.IsUniqueViolation(err) {
		return apperr.Conflict(msgDuplicateNumber, err)
	}
	return err
}

func (r *repoPG) GetByNumber(ctx context.Context, number string) (*Ticket, error) {
	var t Ticket
	err := r.conn(ctx).QueryRow(ctx, `SELECT `+ticketCols+` FROM lab_numbers WHERE number = $1`, number).
		Scan(&t.ID, &t.Number, &t.Patient, &t.CreatedAt)
	if db.IsNoRows(err) {
		return nil, apperr.NotFound("lab number")
	} else if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repoPG) List(ctx context.Context, f pagination.Filter, limit, offset int) ([]*Ticket, int, error) {
	qb := db.NewSearchQuery("lab_numbers", ticketCols)
	qb.AddFilter(f, "created_at", "number", "patient")
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

	var tickets []*Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(&t.ID, &t.Number, &t.Patient, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, &t)
	}
	return tickets, total, rows.Err()
}
