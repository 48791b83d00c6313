package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/kis-go/internal/kis"
	"github.com/wonny/kis-go/pkg/logger"
)

// ExecutionSource is the persistence slice the execution handler reads
// from.
type ExecutionSource interface {
	ListByStock(ctx context.Context, stockCode string, limit int) ([]kis.ExecutionData, error)
}

// ExecutionHandler serves stored realtime execution notices.
type ExecutionHandler struct {
	source ExecutionSource
	logger *logger.Logger
}

// NewExecutionHandler creates a new execution handler
func NewExecutionHandler(source ExecutionSource, log *logger.Logger) *ExecutionHandler {
	return &ExecutionHandler{source: source, logger: log}
}

// GetExecutions handles GET /api/executions/{code}?limit=N
func (h *ExecutionHandler) GetExecutions(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	executions, err := h.source.ListByStock(r.Context(), code, limit)
	if err != nil {
		h.logger.WithError(err).Error("Execution list failed")
		writeError(w, http.StatusInternalServerError, "execution query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"executions": executions,
	})
}
