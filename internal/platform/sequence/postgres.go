package sequence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medlab/medlab/internal/platform/db"
)

// Postgres keeps counters in the sequences table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Next(ctx context.Context, key string) (int64, error) {
	var n int64
	err := db.Conn(ctx, p.pool).QueryRow(ctx, `
		INSERT INTO sequences (key, value) VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET value = sequences.value + 1
		RETURNING value`, key).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next %s: %w", key, err)
	}
	return n, nil
}
