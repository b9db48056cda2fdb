package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/seethrueu/openfinesse/internal/core"
)

// Runner implements core.QueryRunner: it executes rendered aggregate queries
// against the read views and returns their (period_id, value) rows.
type Runner struct {
	pool *pgxpool.Pool
}

func NewRunner(pool *pgxpool.Pool) *Runner {
	return &Runner{pool: pool}
}

func (r *Runner) PeriodValues(ctx context.Context, q core.Query) ([]core.PeriodValue, error) {
	rows, err := r.pool.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var values []core.PeriodValue
	for rows.Next() {
		var (
			pv    core.PeriodValue
			value decimal.NullDecimal
		)
		if err := rows.Scan(&pv.PeriodID, &value); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		pv.Value = value
		values = append(values, pv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return values, nil
}
