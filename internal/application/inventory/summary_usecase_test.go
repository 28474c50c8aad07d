package inventory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appinventory "github.com/jhoicas/clinica-estoque-api/internal/application/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

func TestListProducts_OrdenPorSeveridadYNombre(t *testing.T) {
	h := newHarness(t)
	h.product(t, "p-ok", "Acetaminofén", "5")
	h.product(t, "p-out", "Zinc", "5")
	h.product(t, "p-low", "Bisturí", "10")
	h.product(t, "p-crit-b", "Catéter", "10")
	h.product(t, "p-crit-a", "Bajalenguas", "10")
	h.product(t, "p-hidden", "Sin uso", "0")

	h.batch(t, "p-ok", "A", 200, "50")
	h.batch(t, "p-low", "A", 200, "8")
	h.batch(t, "p-crit-b", "A", 200, "3")
	h.batch(t, "p-crit-a", "A", 200, "2")

	items, err := h.summary.ListProducts(context.Background())
	require.NoError(t, err)

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	assert.Equal(t, []string{"p-out", "p-crit-a", "p-crit-b", "p-low", "p-ok"}, ids)
	assert.Equal(t, entity.ProductStatusOut, items[0].Status)
	assert.Equal(t, entity.ProductStatusOK, items[4].Status)
}

func TestListProducts_VencidoNoCuentaComoDisponible(t *testing.T) {
	h := newHarness(t)
	h.product(t, "p1", "Suero", "5")
	h.batch(t, "p1", "V", -1, "20")
	h.batch(t, "p1", "A", 200, "4")

	item, err := h.summary.GetProductStock(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, d("24").Equal(item.TotalQuantity))
	assert.True(t, d("4").Equal(item.AvailableQuantity))
	assert.Equal(t, 2, item.BatchCount)
	assert.Equal(t, entity.ProductStatusLow, item.Status)
	require.NotNil(t, item.DaysUntilExpiration)
	assert.Equal(t, -1, *item.DaysUntilExpiration)
	assert.True(t, d("6").Equal(item.TotalValue), "solo el stock asignable suma valor")
}

func TestGetProductStock_CacheAsideEInvalidacion(t *testing.T) {
	cache := newRecordingCache()
	h := newHarness(t, withCache(cache))
	h.product(t, "p1", "Gasas", "0")
	h.batch(t, "p1", "A", 200, "10")
	ctx := context.Background()

	first, err := h.summary.GetProductStock(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, cache.items["p1"])
	assert.Equal(t, "2026-03-10", cache.days["p1"])

	second, err := h.summary.GetProductStock(ctx, "p1")
	require.NoError(t, err)
	assert.Same(t, first, second, "segunda lectura sale de la caché")

	_, err = h.consume.Consume(ctx, appinventory.ConsumeInput{ProductID: "p1", Quantity: d("4")})
	require.NoError(t, err)
	assert.Nil(t, cache.items["p1"], "la escritura invalida la entrada")

	third, err := h.summary.GetProductStock(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, d("6").Equal(third.AvailableQuantity))

	_, err = h.summary.GetProductStock(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetProductStock_VistaCalculadaAntesDeUnaEscrituraNoSeSirve(t *testing.T) {
	cache := newRecordingCache()
	h := newHarness(t, withCache(cache))
	h.product(t, "p1", "Gasas", "0")
	h.batch(t, "p1", "A", 200, "10")
	ctx := context.Background()

	// el consumo confirma entre el cálculo de la vista y su escritura en caché
	cache.beforeSet = func() {
		_, err := h.consume.Consume(ctx, appinventory.ConsumeInput{ProductID: "p1", Quantity: d("4")})
		require.NoError(t, err)
	}
	stale, err := h.summary.GetProductStock(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, d("10").Equal(stale.AvailableQuantity))

	fresh, err := h.summary.GetProductStock(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, d("6").Equal(fresh.AvailableQuantity), fresh.AvailableQuantity.String())
}

func TestSummary_KPIs(t *testing.T) {
	h := newHarness(t)
	h.product(t, "p1", "Omeprazol", "10")
	h.product(t, "p2", "Insulina", "0")
	h.product(t, "p3", "Zinc", "3")

	h.batch(t, "p1", "A", 200, "8") // low
	h.batch(t, "p2", "B", 5, "4")   // vence este mes
	h.batch(t, "p2", "C", 21, "4")  // 31 de marzo
	h.batch(t, "p2", "D", 22, "4")  // abril
	h.batch(t, "p2", "E", -2, "4")  // vencido
	_, err := h.engine.Recompute(context.Background(), "p3")
	require.NoError(t, err)

	s, err := h.summary.Summary(context.Background())
	require.NoError(t, err)

	assert.True(t, s.GeneratedAt.Equal(testNow))
	assert.Equal(t, 3, s.TotalProducts)
	assert.Equal(t, 1, s.ByStatus[entity.ProductStatusOK])
	assert.Equal(t, 1, s.ByStatus[entity.ProductStatusLow])
	assert.Equal(t, 1, s.ByStatus[entity.ProductStatusOut])
	assert.Equal(t, 0, s.ByStatus[entity.ProductStatusCritical])
	// (8 + 4 + 4 + 4) * 1.5
	assert.True(t, d("30").Equal(s.TotalValue), s.TotalValue.String())
	assert.Equal(t, 2, s.ExpiringThisMonth)
	assert.Equal(t, 1, s.ExpiredWithStock)

	// p1 low, p2: B crítico, C y D advertencia, E vencido; p3 sin stock
	assert.Equal(t, 3, s.OpenAlerts[entity.AlertSeverityCritical])
	assert.Equal(t, 3, s.OpenAlerts[entity.AlertSeverityWarning])
}

func TestLedger_MovimientosDelProducto(t *testing.T) {
	h := newHarness(t)
	h.product(t, "p1", "Gasas", "0")
	h.batch(t, "p1", "A", 200, "10")
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := h.consume.Consume(ctx, appinventory.ConsumeInput{ProductID: "p1", Quantity: d("1")})
		require.NoError(t, err)
	}

	movs, err := h.ledger.MovementsForProduct(ctx, "p1", nil, nil, 2, 0)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTypeOut, movs[0].Type)
	assert.Greater(t, movs[0].Seq, movs[1].Seq, "más recientes primero")

	from, to := testNow.Add(time.Hour), testNow
	_, err = h.ledger.MovementsForProduct(ctx, "p1", &from, &to, 0, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = h.ledger.MovementsForProduct(ctx, "nope", nil, nil, 0, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReplayLedger_DetectaInconsistencias(t *testing.T) {
	b := &entity.StockBatch{ID: "b1", ProductID: "p1", InitialQuantity: d("10"), CurrentQuantity: d("7")}
	in := &entity.StockMovement{ID: "m1", Type: entity.MovementTypeIn, Quantity: d("10"), Direction: 1}
	out := &entity.StockMovement{ID: "m2", Type: entity.MovementTypeOut, Quantity: d("4"), Direction: -1}
	cancel := &entity.StockMovement{ID: "m3", Type: entity.MovementTypeCancellation, Quantity: d("1"), Direction: 1}

	r := appinventory.ReplayLedger(b, []*entity.StockMovement{in, out, cancel})
	assert.True(t, r.Consistent, "issues: %v", r.Issues)
	assert.True(t, d("7").Equal(r.ReplayedQuantity))

	r = appinventory.ReplayLedger(b, []*entity.StockMovement{in, out})
	assert.False(t, r.Consistent)

	r = appinventory.ReplayLedger(b, []*entity.StockMovement{out, in, cancel})
	assert.False(t, r.Consistent, "el saldo no puede pasar por negativo")
}

type fakeReportGenerator struct {
	got *appinventory.StockReport
	err error
}

func (g *fakeReportGenerator) GenerateStockReport(_ context.Context, r *appinventory.StockReport) ([]byte, error) {
	g.got = r
	if g.err != nil {
		return nil, g.err
	}
	return []byte("%PDF-fake"), nil
}

func TestReport_ArmaDatosYDelega(t *testing.T) {
	h := newHarness(t)
	h.product(t, "p1", "Omeprazol", "10")
	h.batch(t, "p1", "A", 200, "8")
	gen := &fakeReportGenerator{}
	uc := appinventory.NewReportUseCase(h.summary, h.engine, gen, "Clínica Norte")

	pdf, err := uc.GeneratePDF(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(pdf))
	require.NotNil(t, gen.got)
	assert.Equal(t, "Clínica Norte", gen.got.Title)
	assert.Len(t, gen.got.Items, 1)
	assert.Len(t, gen.got.Alerts, 1)
	assert.Equal(t, time.UTC, gen.got.Location)

	gen.err = errors.New("sin fuentes")
	_, err = uc.GeneratePDF(context.Background())
	assert.ErrorContains(t, err, "sin fuentes")
}
