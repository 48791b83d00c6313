package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/kis-go/internal/kis"
	"github.com/wonny/kis-go/pkg/config"
	"github.com/wonny/kis-go/pkg/logger"
	"github.com/wonny/kis-go/pkg/redis"
)

// Quoter is the slice of the KIS client the collector needs.
type Quoter interface {
	DomesticPrice(ctx context.Context, ticker string) (*kis.Quote, error)
	DomesticDailyPrices(ctx context.Context, ticker string, period kis.PeriodCode) ([]kis.Candle, error)
}

// PriceStore is the persistence slice the collector writes to.
type PriceStore interface {
	SaveQuote(ctx context.Context, q *kis.Quote, collectedAt time.Time) error
	SaveCandles(ctx context.Context, stockCode string, candles []kis.Candle) error
}

// Collector fetches quotes for the configured symbols and lands them
// in Postgres and the Redis cache. It runs as a scheduler job after
// the domestic close.
// ⭐ SSOT: 시세 수집 파이프라인은 여기서만
type Collector struct {
	quoter   Quoter
	store    PriceStore
	cache    *redis.Cache
	logger   *logger.Logger
	symbols  []string
	schedule string
}

// New creates a collector. cache may be a disabled no-op cache.
func New(quoter Quoter, store PriceStore, cache *redis.Cache, cfg *config.Config, log *logger.Logger) *Collector {
	return &Collector{
		quoter:   quoter,
		store:    store,
		cache:    cache,
		logger:   log.WithField("component", "collector"),
		symbols:  cfg.Collector.Symbols,
		schedule: cfg.Collector.Schedule,
	}
}

// Name implements scheduler.Job
func (c *Collector) Name() string { return "quote_collector" }

// Schedule implements scheduler.Job
func (c *Collector) Schedule() string { return c.schedule }

// Run collects every configured symbol. A symbol failure is logged
// and skipped so one delisted code cannot starve the rest; the run
// fails only when every symbol fails.
func (c *Collector) Run(ctx context.Context) error {
	if len(c.symbols) == 0 {
		c.logger.Warn("No symbols configured, nothing to collect")
		return nil
	}

	now := time.Now()
	failed := 0

	for _, symbol := range c.symbols {
		if err := c.collectOne(ctx, symbol, now); err != nil {
			failed++
			c.logger.WithError(err).WithField("symbol", symbol).Error("Symbol collection failed")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"total":  len(c.symbols),
		"failed": failed,
	}).Info("Collection run finished")

	if failed == len(c.symbols) {
		return fmt.Errorf("all %d symbols failed to collect", failed)
	}
	return nil
}

func (c *Collector) collectOne(ctx context.Context, symbol string, now time.Time) error {
	quote, err := c.quoter.DomesticPrice(ctx, symbol)
	if err != nil {
		return fmt.Errorf("price fetch failed: %w", err)
	}

	if err := c.store.SaveQuote(ctx, quote, now); err != nil {
		return err
	}

	// Cache failures are non-fatal; the DB row is the durable copy
	if err := c.cache.Set(ctx, redis.QuoteKey(symbol), quote, redis.TTLQuote); err != nil {
		c.logger.WithError(err).WithField("symbol", symbol).Warn("Quote cache write failed")
	}

	candles, err := c.quoter.DomesticDailyPrices(ctx, symbol, kis.PeriodDay)
	if err != nil {
		return fmt.Errorf("daily price fetch failed: %w", err)
	}
	if err := c.store.SaveCandles(ctx, symbol, candles); err != nil {
		return err
	}

	return nil
}
