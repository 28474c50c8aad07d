package cache

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

func sampleItem() *entity.StockListItem {
	days := 12
	exp := time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC)
	return &entity.StockListItem{
		ProductID:           "p1",
		ProductName:         "Amoxicilina",
		Unit:                "un",
		MinStock:            decimal.NewFromInt(10),
		TotalQuantity:       decimal.RequireFromString("12.5"),
		AvailableQuantity:   decimal.RequireFromString("12.5"),
		BatchCount:          2,
		NearestExpiration:   &exp,
		DaysUntilExpiration: &days,
		TotalValue:          decimal.RequireFromString("18.75"),
		AverageUnitCost:     decimal.RequireFromString("1.5"),
		Status:              entity.ProductStatusOK,
	}
}

func TestDecodeView_DiaDistintoEsAusente(t *testing.T) {
	raw, err := json.Marshal(cachedView{Day: "2026-03-10", Item: sampleItem()})
	require.NoError(t, err)

	got, err := decodeView(raw, "2026-03-10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, decimal.RequireFromString("12.5").Equal(got.AvailableQuantity))
	require.NotNil(t, got.DaysUntilExpiration)
	assert.Equal(t, 12, *got.DaysUntilExpiration)

	stale, err := decodeView(raw, "2026-03-11")
	require.NoError(t, err)
	assert.Nil(t, stale, "cambió el día: los días al vencimiento ya no son válidos")

	_, err = decodeView([]byte("{"), "2026-03-10")
	assert.Error(t, err)
	assert.Equal(t, "stock:view:p1:3", stockKey("p1", 3))
	assert.Equal(t, "stock:gen:p1", generationKey("p1"))
}

func TestRedisStockCache_Integracion(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL no definido")
	}
	ctx := context.Background()
	c, err := NewRedisStockCache(ctx, url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	item := sampleItem()
	require.NoError(t, c.Invalidate(ctx, item.ProductID))
	got, gen, err := c.Get(ctx, "p1", "2026-03-10")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, c.Set(ctx, "2026-03-10", gen, item))

	got, again, err := c.Get(ctx, "p1", "2026-03-10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, gen, again)
	assert.Equal(t, item.ProductName, got.ProductName)

	require.NoError(t, c.Invalidate(ctx, "p1"))
	got, _, err = c.Get(ctx, "p1", "2026-03-10")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStockCache_SetTardioNoSeSirve(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL no definido")
	}
	ctx := context.Background()
	c, err := NewRedisStockCache(ctx, url, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	item := sampleItem()
	_, gen, err := c.Get(ctx, item.ProductID, "2026-03-10")
	require.NoError(t, err)

	// una escritura confirma e invalida mientras la lectura calculaba la vista
	require.NoError(t, c.Invalidate(ctx, item.ProductID))
	require.NoError(t, c.Set(ctx, "2026-03-10", gen, item))

	got, current, err := c.Get(ctx, item.ProductID, "2026-03-10")
	require.NoError(t, err)
	assert.Nil(t, got, "la vista calculada antes de la invalidación queda huérfana")
	assert.Equal(t, gen+1, current)
}
