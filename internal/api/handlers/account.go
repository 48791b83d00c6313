package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/wonny/kis-go/internal/kis"
	"github.com/wonny/kis-go/pkg/logger"
)

// AccountSource is the slice of the KIS client the account handler
// needs.
type AccountSource interface {
	DomesticBalance(ctx context.Context) (*kis.Balance, []kis.Position, error)
	OverseasBalance(ctx context.Context, markets ...kis.Market) ([]kis.OverseasPosition, error)
	DomesticOpenOrders(ctx context.Context) ([]kis.OpenOrder, error)
}

// AccountHandler serves account inquiry endpoints.
type AccountHandler struct {
	source AccountSource
	logger *logger.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(source AccountSource, log *logger.Logger) *AccountHandler {
	return &AccountHandler{source: source, logger: log}
}

// GetBalance handles GET /api/balance
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	balance, positions, err := h.source.DomesticBalance(r.Context())
	if err != nil {
		h.writeAccountError(w, err, "Balance fetch failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"balance":   balance,
		"positions": positions,
	})
}

// GetOverseasBalance handles GET /api/balance/overseas
func (h *AccountHandler) GetOverseasBalance(w http.ResponseWriter, r *http.Request) {
	positions, err := h.source.OverseasBalance(r.Context())
	if err != nil {
		h.writeAccountError(w, err, "Overseas balance fetch failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"positions": positions,
	})
}

// GetOpenOrders handles GET /api/orders/open
func (h *AccountHandler) GetOpenOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.source.DomesticOpenOrders(r.Context())
	if err != nil {
		h.writeAccountError(w, err, "Open orders fetch failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"orders": orders,
	})
}

func (h *AccountHandler) writeAccountError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, kis.ErrNoAccount) {
		writeError(w, http.StatusServiceUnavailable, "account not configured")
		return
	}
	h.logger.WithError(err).Error(logMsg)
	writeError(w, http.StatusBadGateway, "account query failed")
}
