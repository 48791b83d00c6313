package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/kis-go/internal/kis"
)

// PriceRepository persists collected quotes and daily candles
// ⭐ SSOT: 시세 데이터 저장/조회는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// SaveQuote upserts a current-price snapshot keyed by stock and
// collection time (minute precision).
func (r *PriceRepository) SaveQuote(ctx context.Context, q *kis.Quote, collectedAt time.Time) error {
	query := `
		INSERT INTO market.quotes (
			stock_code, collected_at,
			price, open, high, low, prev_close,
			change, change_rate, volume, trade_amount
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (stock_code, collected_at) DO UPDATE SET
			price = EXCLUDED.price,
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			prev_close = EXCLUDED.prev_close,
			change = EXCLUDED.change,
			change_rate = EXCLUDED.change_rate,
			volume = EXCLUDED.volume,
			trade_amount = EXCLUDED.trade_amount
	`

	_, err := r.pool.Exec(ctx, query,
		q.StockCode, collectedAt.Truncate(time.Minute),
		q.Price, q.Open, q.High, q.Low, q.PrevClose,
		q.Change, q.ChangeRate, q.Volume, q.TradeAmount,
	)
	if err != nil {
		return fmt.Errorf("failed to save quote for %s: %w", q.StockCode, err)
	}
	return nil
}

// SaveCandles upserts daily OHLCV bars in one transaction.
func (r *PriceRepository) SaveCandles(ctx context.Context, stockCode string, candles []kis.Candle) error {
	if len(candles) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO market.daily_candles (
			stock_code, trade_date,
			open, high, low, close, volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (stock_code, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	for _, c := range candles {
		tradeDate, err := time.Parse("20060102", c.Date)
		if err != nil {
			return fmt.Errorf("bad trade date %q: %w", c.Date, err)
		}
		if _, err := tx.Exec(ctx, query,
			stockCode, tradeDate,
			c.Open, c.High, c.Low, c.Close, c.Volume,
		); err != nil {
			return fmt.Errorf("failed to save candle %s/%s: %w", stockCode, c.Date, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetCandles loads daily candles for a stock over a date range,
// oldest first.
func (r *PriceRepository) GetCandles(ctx context.Context, stockCode string, from, to time.Time) ([]kis.Candle, error) {
	query := `
		SELECT trade_date, open, high, low, close, volume
		FROM market.daily_candles
		WHERE stock_code = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date
	`

	rows, err := r.pool.Query(ctx, query, stockCode, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query candles: %w", err)
	}
	defer rows.Close()

	var candles []kis.Candle
	for rows.Next() {
		var (
			tradeDate time.Time
			c         kis.Candle
		)
		if err := rows.Scan(&tradeDate, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan candle row: %w", err)
		}
		c.Date = tradeDate.Format("20060102")
		candles = append(candles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candle rows: %w", err)
	}

	return candles, nil
}

// LatestQuote returns the most recently collected quote for a stock.
func (r *PriceRepository) LatestQuote(ctx context.Context, stockCode string) (*kis.Quote, time.Time, error) {
	query := `
		SELECT collected_at,
			price, open, high, low, prev_close,
			change, change_rate, volume, trade_amount
		FROM market.quotes
		WHERE stock_code = $1
		ORDER BY collected_at DESC
		LIMIT 1
	`

	var (
		collectedAt time.Time
		q           = kis.Quote{StockCode: stockCode}
	)
	err := r.pool.QueryRow(ctx, query, stockCode).Scan(
		&collectedAt,
		&q.Price, &q.Open, &q.High, &q.Low, &q.PrevClose,
		&q.Change, &q.ChangeRate, &q.Volume, &q.TradeAmount,
	)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to get latest quote: %w", err)
	}

	return &q, collectedAt, nil
}
