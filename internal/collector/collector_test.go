package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/kis-go/internal/kis"
	"github.com/wonny/kis-go/pkg/config"
	"github.com/wonny/kis-go/pkg/logger"
	"github.com/wonny/kis-go/pkg/redis"
)

type fakeQuoter struct {
	failOn map[string]bool
	prices map[string]int64
}

func (f *fakeQuoter) DomesticPrice(ctx context.Context, ticker string) (*kis.Quote, error) {
	if f.failOn[ticker] {
		return nil, errors.New("gateway error")
	}
	return &kis.Quote{StockCode: ticker, Price: f.prices[ticker]}, nil
}

func (f *fakeQuoter) DomesticDailyPrices(ctx context.Context, ticker string, period kis.PeriodCode) ([]kis.Candle, error) {
	if f.failOn[ticker] {
		return nil, errors.New("gateway error")
	}
	return []kis.Candle{{Date: "20260828", Close: f.prices[ticker]}}, nil
}

type fakeStore struct {
	quotes  []string
	candles []string
}

func (f *fakeStore) SaveQuote(ctx context.Context, q *kis.Quote, collectedAt time.Time) error {
	f.quotes = append(f.quotes, q.StockCode)
	return nil
}

func (f *fakeStore) SaveCandles(ctx context.Context, stockCode string, candles []kis.Candle) error {
	f.candles = append(f.candles, stockCode)
	return nil
}

func testCollector(symbols []string, quoter Quoter, store PriceStore) *Collector {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Collector: config.CollectorConfig{
			Symbols:  symbols,
			Schedule: "0 30 15 * * MON-FRI",
		},
	}
	log := logger.New(cfg)
	cache := redis.NewCache(mustDisabledRedis(cfg), "kis")
	return New(quoter, store, cache, cfg, log)
}

func mustDisabledRedis(cfg *config.Config) *redis.Client {
	client, err := redis.New(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

func TestCollectorRun(t *testing.T) {
	quoter := &fakeQuoter{prices: map[string]int64{"005930": 71000, "000660": 125000}}
	store := &fakeStore{}
	c := testCollector([]string{"005930", "000660"}, quoter, store)

	require.NoError(t, c.Run(context.Background()))

	assert.Len(t, store.quotes, 2)
	assert.Len(t, store.candles, 2)
}

func TestCollectorSkipsFailedSymbol(t *testing.T) {
	quoter := &fakeQuoter{
		prices: map[string]int64{"005930": 71000},
		failOn: map[string]bool{"999999": true},
	}
	store := &fakeStore{}
	c := testCollector([]string{"999999", "005930"}, quoter, store)

	// One bad symbol must not fail the run
	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, []string{"005930"}, store.quotes)
}

func TestCollectorAllSymbolsFailed(t *testing.T) {
	quoter := &fakeQuoter{failOn: map[string]bool{"A": true, "B": true}}
	c := testCollector([]string{"A", "B"}, quoter, &fakeStore{})

	assert.Error(t, c.Run(context.Background()))
}

func TestCollectorNoSymbols(t *testing.T) {
	c := testCollector(nil, &fakeQuoter{}, &fakeStore{})
	assert.NoError(t, c.Run(context.Background()))
}

func TestCollectorJobInterface(t *testing.T) {
	c := testCollector([]string{"005930"}, &fakeQuoter{}, &fakeStore{})
	assert.Equal(t, "quote_collector", c.Name())
	assert.Equal(t, "0 30 15 * * MON-FRI", c.Schedule())
}
