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

func TestCreateBatch_EscribeEntradaYDefaults(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "p1", "Amoxicilina 500mg", "0")
	p.DefaultManufacturer = "Genfar"
	require.NoError(t, h.store.Products().Update(context.Background(), p))

	view, err := h.batches.CreateBatch(context.Background(), appinventory.CreateBatchInput{
		ProductID:       "p1",
		BatchNumber:     " L-2026-01 ",
		ExpirationDate:  testNow.AddDate(0, 6, 0),
		InitialQuantity: d("100"),
		InvoiceNumber:   "FAC-77",
		UserID:          "u1",
	})
	require.NoError(t, err)

	b := view.Batch
	assert.Equal(t, "L-2026-01", b.BatchNumber)
	assert.Equal(t, "Genfar", b.Manufacturer, "toma el fabricante por defecto del producto")
	assert.True(t, d("1.5").Equal(b.UnitCost), "toma el costo del producto")
	assert.True(t, b.CurrentQuantity.Equal(b.InitialQuantity))
	assert.Equal(t, entity.BatchStatusActive, view.Status)

	movs, err := h.ledger.MovementsForBatch(context.Background(), b.ID)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementTypeIn, movs[0].Type)
	assert.True(t, d("100").Equal(movs[0].Quantity))
	assert.Equal(t, 1, movs[0].Direction)
	assert.True(t, d("150").Equal(movs[0].TotalCost))
	assert.Equal(t, "FAC-77", movs[0].Reference)
}

func TestCreateBatch_Validaciones(t *testing.T) {
	h := newHarness(t)
	h.product(t, "p1", "Gasas", "0")
	exp := testNow.AddDate(0, 3, 0)
	after := exp.AddDate(0, 0, 1)
	negative := d("-1")

	cases := map[string]appinventory.CreateBatchInput{
		"cantidad cero":         {ProductID: "p1", BatchNumber: "L1", ExpirationDate: exp, InitialQuantity: d("0")},
		"sin vencimiento":       {ProductID: "p1", BatchNumber: "L1", InitialQuantity: d("1")},
		"sin número":            {ProductID: "p1", ExpirationDate: exp, InitialQuantity: d("1")},
		"costo negativo":        {ProductID: "p1", BatchNumber: "L1", ExpirationDate: exp, InitialQuantity: d("1"), UnitCost: &negative},
		"fabricación posterior": {ProductID: "p1", BatchNumber: "L1", ExpirationDate: exp, InitialQuantity: d("1"), ManufacturingDate: &after},
		"sin producto":          {BatchNumber: "L1", ExpirationDate: exp, InitialQuantity: d("1")},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.batches.CreateBatch(context.Background(), in)
			var verr *domain.ValidationError
			assert.True(t, errors.As(err, &verr), "se esperaba ValidationError, fue %v", err)
		})
	}

	_, err := h.batches.CreateBatch(context.Background(), appinventory.CreateBatchInput{
		ProductID: "nope", BatchNumber: "L1", ExpirationDate: exp, InitialQuantity: d("1"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateBatch_NumeroDuplicado(t *testing.T) {
	h := newHarness(t)
	h.product(t, "p1", "Gasas", "0")
	h.product(t, "p2", "Suero", "0")
	first := h.batch(t, "p1", "L1", 90, "5")

	_, err := h.batches.CreateBatch(context.Background(), appinventory.CreateBatchInput{
		ProductID: "p1", BatchNumber: "L1", ExpirationDate: testNow.AddDate(0, 0, 90), InitialQuantity: d("3"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// mismo número en otro producto es válido
	h.batch(t, "p2", "L1", 90, "3")

	// una vez agotado, el número se puede reutilizar
	_, err = h.consume.Consume(context.Background(), appinventory.ConsumeInput{ProductID: "p1", Quantity: d("5")})
	require.NoError(t, err)
	assert.True(t, h.current(t, first.ID).IsZero())
	h.batch(t, "p1", "L1", 120, "4")
}

func TestGetBatchesForProduct_OrdenYEstado(t *testing.T) {
	h := newHarness(t)
	h.product(t, "p1", "Gasas", "0")
	late := h.batch(t, "p1", "L-late", 200, "10")
	soon := h.batch(t, "p1", "L-soon", 20, "10")

	views, err := h.batches.GetBatchesForProduct(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, soon.ID, views[0].Batch.ID)
	assert.Equal(t, entity.BatchStatusExpiring, views[0].Status)
	assert.Equal(t, 20, views[0].DaysUntilExpiration)
	assert.Equal(t, late.ID, views[1].Batch.ID)

	_, err = h.batches.GetBatchesForProduct(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = h.batches.GetBatch(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAdjustBatch_InvarianteYMovimiento(t *testing.T) {
	h := newHarness(t)
	h.product(t, "p1", "Gasas", "0")
	b := h.batch(t, "p1", "L1", 90, "10")
	ctx := context.Background()

	mov, err := h.batches.AdjustBatch(ctx, appinventory.AdjustBatchInput{BatchID: b.ID, Delta: d("-4"), Reason: "rotura", UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, entity.MovementTypeAdjustment, mov.Type)
	assert.True(t, d("4").Equal(mov.Quantity))
	assert.Equal(t, -1, mov.Direction)
	assert.True(t, d("6").Equal(h.current(t, b.ID)))

	_, err = h.batches.AdjustBatch(ctx, appinventory.AdjustBatchInput{BatchID: b.ID, Delta: d("-7"), Reason: "conteo"})
	var inv *domain.InvariantViolationError
	require.True(t, errors.As(err, &inv), "no se recorta a cero: %v", err)
	assert.True(t, d("6").Equal(inv.Current))

	_, err = h.batches.AdjustBatch(ctx, appinventory.AdjustBatchInput{BatchID: b.ID, Delta: d("5"), Reason: "conteo"})
	assert.ErrorIs(t, err, domain.ErrInvariantViolation, "no puede superar la cantidad inicial")

	_, err = h.batches.AdjustBatch(ctx, appinventory.AdjustBatchInput{BatchID: b.ID, Delta: d("0"), Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = h.batches.AdjustBatch(ctx, appinventory.AdjustBatchInput{BatchID: b.ID, Delta: d("1"), Reason: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = h.batches.AdjustBatch(ctx, appinventory.AdjustBatchInput{BatchID: "nope", Delta: d("1"), Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mov, err = h.batches.AdjustBatch(ctx, appinventory.AdjustBatchInput{BatchID: b.ID, Delta: d("4"), Reason: "conteo físico"})
	require.NoError(t, err)
	assert.Equal(t, 1, mov.Direction)
	assert.True(t, d("10").Equal(h.current(t, b.ID)))

	report, err := h.ledger.VerifyBatchLedger(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent, "issues: %v", report.Issues)
	assert.Equal(t, 3, report.MovementCount)
	assert.True(t, report.TotalAdjustments.IsZero())
}

func TestGetBatch_VenceHoyEsVencido(t *testing.T) {
	h := newHarness(t)
	h.product(t, "p1", "Gasas", "0")
	today := time.Date(testNow.Year(), testNow.Month(), testNow.Day(), 0, 0, 0, 0, time.UTC)
	view, err := h.batches.CreateBatch(context.Background(), appinventory.CreateBatchInput{
		ProductID: "p1", BatchNumber: "L-hoy", ExpirationDate: today, InitialQuantity: d("3"),
	})
	require.NoError(t, err)

	got, err := h.batches.GetBatch(context.Background(), view.Batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.DaysUntilExpiration)
	assert.Equal(t, entity.BatchStatusExpired, got.Status)
}
