package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/kis-go/internal/kis"
)

func TestExecutionRepository_SaveAndListByStock(t *testing.T) {
	repo := NewExecutionRepository(testPool(t))
	ctx := context.Background()

	exec := kis.ExecutionData{
		OrderNo:    "1001",
		StockCode:  "005930",
		StockName:  "삼성전자",
		Side:       kis.SideBuy,
		ExecQty:    10,
		ExecPrice:  71000,
		OrderQty:   10,
		OrderPrice: 71000,
		Time:       "093015",
	}
	now := time.Now()

	require.NoError(t, repo.Save(ctx, exec, now))
	// Replayed notice for the same (order, time) pair upserts
	exec.ExecQty = 5
	require.NoError(t, repo.Save(ctx, exec, now))

	got, err := repo.ListByStock(ctx, "005930", 10)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "1001", got[0].OrderNo)
	assert.Equal(t, kis.SideBuy, got[0].Side)
	assert.Equal(t, int64(5), got[0].ExecQty)
}

func TestExecutionRepository_ListByStockEmpty(t *testing.T) {
	repo := NewExecutionRepository(testPool(t))

	got, err := repo.ListByStock(context.Background(), "999999", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
