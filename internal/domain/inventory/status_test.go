package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/inventory"
)

var testNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func newEvaluator() inventory.Evaluator {
	return inventory.NewEvaluator(inventory.DefaultThresholds(), time.UTC)
}

func batch(id string, daysToExpire int, initial, current string) *entity.StockBatch {
	return &entity.StockBatch{
		ID:              id,
		ProductID:       "p1",
		BatchNumber:     "L-" + id,
		ExpirationDate:  testNow.AddDate(0, 0, daysToExpire),
		InitialQuantity: dec(initial),
		CurrentQuantity: dec(current),
		UnitCost:        dec("2.50"),
		CreatedAt:       testNow.AddDate(0, -1, 0),
	}
}

func TestDeriveProductStatus_Precedencia(t *testing.T) {
	ratio := inventory.DefaultThresholds().CriticalRatio
	minStock := dec("20")

	cases := []struct {
		available string
		want      string
	}{
		{"0", entity.ProductStatusOut},
		{"5", entity.ProductStatusCritical},
		{"10", entity.ProductStatusCritical},
		{"18", entity.ProductStatusLow},
		{"20", entity.ProductStatusLow},
		{"25", entity.ProductStatusOK},
	}
	for _, tc := range cases {
		got := inventory.DeriveProductStatus(dec(tc.available), minStock, ratio)
		assert.Equal(t, tc.want, got, "disponible %s con mínimo 20", tc.available)
	}
}

func TestDeriveProductStatus_SinMinimo(t *testing.T) {
	ratio := inventory.DefaultThresholds().CriticalRatio
	assert.Equal(t, entity.ProductStatusOut, inventory.DeriveProductStatus(decimal.Zero, decimal.Zero, ratio))
	assert.Equal(t, entity.ProductStatusOK, inventory.DeriveProductStatus(dec("1"), decimal.Zero, ratio))
}

func TestStatusRank_OrdenDeSeveridad(t *testing.T) {
	assert.Less(t, inventory.StatusRank(entity.ProductStatusOut), inventory.StatusRank(entity.ProductStatusCritical))
	assert.Less(t, inventory.StatusRank(entity.ProductStatusCritical), inventory.StatusRank(entity.ProductStatusLow))
	assert.Less(t, inventory.StatusRank(entity.ProductStatusLow), inventory.StatusRank(entity.ProductStatusOK))
}

func TestSummarize_ExcluyeVencidosDelDisponible(t *testing.T) {
	ev := newEvaluator()
	product := &entity.Product{ID: "p1", Name: "Amoxicilina", Unit: "un", MinStock: dec("20")}
	batches := []*entity.StockBatch{
		batch("b1", 60, "100", "30"),
		batch("b2", -2, "50", "10"), // vencido con saldo
		batch("b3", 90, "40", "0"),  // agotado
	}

	item := ev.Summarize(product, batches, testNow)

	assert.True(t, dec("40").Equal(item.TotalQuantity), "total incluye vencidos: %s", item.TotalQuantity)
	assert.True(t, dec("30").Equal(item.AvailableQuantity), "disponible excluye vencidos: %s", item.AvailableQuantity)
	assert.Equal(t, 2, item.BatchCount)
	assert.True(t, dec("75").Equal(item.TotalValue), "valor solo de asignables: %s", item.TotalValue)
	assert.True(t, dec("2.5").Equal(item.AverageUnitCost))
	require.NotNil(t, item.NearestExpiration)
	require.NotNil(t, item.DaysUntilExpiration)
	assert.Equal(t, -2, *item.DaysUntilExpiration)
	assert.Equal(t, entity.ProductStatusOK, item.Status)
}

func TestSummarize_CostoPromedioPonderado(t *testing.T) {
	ev := newEvaluator()
	product := &entity.Product{ID: "p1", Name: "Gasas", Unit: "un"}
	b1 := batch("b1", 60, "10", "10")
	b1.UnitCost = dec("1")
	b2 := batch("b2", 90, "30", "30")
	b2.UnitCost = dec("3")

	item := ev.Summarize(product, []*entity.StockBatch{b1, b2}, testNow)

	assert.True(t, dec("2.5").Equal(item.AverageUnitCost), "promedio: %s", item.AverageUnitCost)
	assert.True(t, dec("100").Equal(item.TotalValue))
}

func TestIsListed(t *testing.T) {
	ev := newEvaluator()
	sinMinimo := &entity.Product{ID: "p1", Name: "Jeringa"}
	conMinimo := &entity.Product{ID: "p2", Name: "Guantes", MinStock: dec("5")}

	assert.False(t, inventory.IsListed(sinMinimo, ev.Summarize(sinMinimo, nil, testNow)))
	assert.True(t, inventory.IsListed(conMinimo, ev.Summarize(conMinimo, nil, testNow)))
	assert.True(t, inventory.IsListed(sinMinimo, ev.Summarize(sinMinimo, []*entity.StockBatch{batch("b1", 60, "5", "5")}, testNow)))
}
