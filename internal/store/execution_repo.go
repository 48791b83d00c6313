package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kis-go/internal/kis"
)

// ExecutionRepository persists realtime execution notices
// ⭐ SSOT: 체결 내역 저장/조회는 여기서만
type ExecutionRepository struct {
	pool *pgxpool.Pool
}

// NewExecutionRepository creates a new execution repository
func NewExecutionRepository(pool *pgxpool.Pool) *ExecutionRepository {
	return &ExecutionRepository{pool: pool}
}

// Save inserts one execution notice. Notices arrive at most once per
// (order, time) pair; replays overwrite.
func (r *ExecutionRepository) Save(ctx context.Context, e kis.ExecutionData, receivedAt time.Time) error {
	query := `
		INSERT INTO trading.executions (
			order_no, orig_order_no, stock_code, stock_name,
			side, exec_qty, exec_price, order_qty, order_price,
			exec_time, rejected, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (order_no, exec_time) DO UPDATE SET
			exec_qty = EXCLUDED.exec_qty,
			exec_price = EXCLUDED.exec_price,
			rejected = EXCLUDED.rejected
	`

	_, err := r.pool.Exec(ctx, query,
		e.OrderNo, e.OrigOrderNo, e.StockCode, e.StockName,
		string(e.Side), e.ExecQty, e.ExecPrice, e.OrderQty, e.OrderPrice,
		e.Time, e.Rejected, receivedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution for order %s: %w", e.OrderNo, err)
	}
	return nil
}

// ListByStock returns the stored executions for a stock, newest first.
func (r *ExecutionRepository) ListByStock(ctx context.Context, stockCode string, limit int) ([]kis.ExecutionData, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT order_no, orig_order_no, stock_code, stock_name,
			side, exec_qty, exec_price, order_qty, order_price,
			exec_time, rejected
		FROM trading.executions
		WHERE stock_code = $1
		ORDER BY received_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, stockCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}
	defer rows.Close()

	var execs []kis.ExecutionData
	for rows.Next() {
		var (
			e    kis.ExecutionData
			side string
		)
		if err := rows.Scan(
			&e.OrderNo, &e.OrigOrderNo, &e.StockCode, &e.StockName,
			&side, &e.ExecQty, &e.ExecPrice, &e.OrderQty, &e.OrderPrice,
			&e.Time, &e.Rejected,
		); err != nil {
			return nil, fmt.Errorf("failed to scan execution row: %w", err)
		}
		e.Side = kis.OrderSide(side)
		execs = append(execs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution rows: %w", err)
	}

	return execs, nil
}
