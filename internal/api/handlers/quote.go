package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/kis-go/internal/kis"
	"github.com/wonny/kis-go/pkg/logger"
	"github.com/wonny/kis-go/pkg/redis"
)

// QuoteSource is the slice of the KIS client the quote handler needs.
type QuoteSource interface {
	DomesticPrice(ctx context.Context, ticker string) (*kis.Quote, error)
	DomesticDailyPrices(ctx context.Context, ticker string, period kis.PeriodCode) ([]kis.Candle, error)
	OverseasPrice(ctx context.Context, market kis.Market, ticker string) (*kis.OverseasQuote, error)
}

// QuoteHandler serves quotation endpoints backed by the Redis cache
// with KIS fallback.
type QuoteHandler struct {
	source QuoteSource
	cache  *redis.Cache
	logger *logger.Logger
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(source QuoteSource, cache *redis.Cache, log *logger.Logger) *QuoteHandler {
	return &QuoteHandler{
		source: source,
		cache:  cache,
		logger: log,
	}
}

// GetQuote handles GET /api/quote/{code}
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	ctx := r.Context()

	var cached kis.Quote
	if found, err := h.cache.Get(ctx, redis.QuoteKey(code), &cached); err == nil && found {
		writeJSON(w, http.StatusOK, &cached)
		return
	}

	quote, err := h.source.DomesticPrice(ctx, code)
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("Quote fetch failed")
		writeError(w, http.StatusBadGateway, "quote fetch failed")
		return
	}

	if err := h.cache.Set(ctx, redis.QuoteKey(code), quote, redis.TTLQuote); err != nil {
		h.logger.WithError(err).Warn("Quote cache write failed")
	}

	writeJSON(w, http.StatusOK, quote)
}

// GetOHLCV handles GET /api/ohlcv/{code}?period=D|W|M
func (h *QuoteHandler) GetOHLCV(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	period := kis.PeriodCode(r.URL.Query().Get("period"))
	switch period {
	case kis.PeriodDay, kis.PeriodWeek, kis.PeriodMonth:
	case "":
		period = kis.PeriodDay
	default:
		writeError(w, http.StatusBadRequest, "period must be one of D, W, M")
		return
	}

	candles, err := h.source.DomesticDailyPrices(r.Context(), code, period)
	if err != nil {
		h.logger.WithError(err).WithField("code", code).Error("OHLCV fetch failed")
		writeError(w, http.StatusBadGateway, "ohlcv fetch failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stock_code": code,
		"period":     period,
		"candles":    candles,
	})
}

// GetOverseasQuote handles GET /api/overseas/quote/{market}/{code}
func (h *QuoteHandler) GetOverseasQuote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	market, err := kis.ParseMarket(vars["market"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	quote, err := h.source.OverseasPrice(r.Context(), market, vars["code"])
	if err != nil {
		h.logger.WithError(err).WithField("code", vars["code"]).Error("Overseas quote fetch failed")
		writeError(w, http.StatusBadGateway, "overseas quote fetch failed")
		return
	}

	writeJSON(w, http.StatusOK, quote)
}
