package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
	"github.com/jhoicas/clinica-estoque-api/internal/infrastructure/memory"
)

var now = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func seedBatch(t *testing.T, s *memory.Store, id, number string, qty int64) *entity.StockBatch {
	t.Helper()
	b := &entity.StockBatch{
		ID:              id,
		ProductID:       "p1",
		BatchNumber:     number,
		ExpirationDate:  now.AddDate(0, 6, 0),
		InitialQuantity: decimal.NewFromInt(qty),
		CurrentQuantity: decimal.NewFromInt(qty),
		UnitCost:        decimal.NewFromInt(2),
		Version:         1,
		CreatedAt:       now,
	}
	require.NoError(t, s.Batches().Create(context.Background(), b))
	return b
}

func TestApplyDelta_CompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seedBatch(t, s, "b1", "L1", 10)
	repo := s.Batches()

	updated, err := repo.ApplyDelta(ctx, "b1", 1, decimal.NewFromInt(-4), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.True(t, decimal.NewFromInt(6).Equal(updated.CurrentQuantity))

	_, err = repo.ApplyDelta(ctx, "b1", 1, decimal.NewFromInt(-1), now)
	assert.True(t, errors.Is(err, domain.ErrConcurrencyConflict), "versión vieja debe fallar")

	_, err = repo.ApplyDelta(ctx, "b1", 2, decimal.NewFromInt(-7), now)
	var inv *domain.InvariantViolationError
	require.True(t, errors.As(err, &inv))
	assert.Equal(t, "b1", inv.BatchID)

	_, err = repo.ApplyDelta(ctx, "b1", 2, decimal.NewFromInt(5), now)
	assert.True(t, errors.Is(err, domain.ErrInvariantViolation), "no puede superar la cantidad inicial")

	_, err = repo.ApplyDelta(ctx, "nope", 1, decimal.NewFromInt(1), now)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTxRunner_RollbackSiFalla(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seedBatch(t, s, "b1", "L1", 10)
	boom := errors.New("boom")

	err := memory.NewTxRunner(s).Run(ctx, func(
		batchRepo repository.StockBatchRepository,
		movRepo repository.StockMovementRepository,
		_ repository.StockAlertRepository,
	) error {
		_, err := batchRepo.ApplyDelta(ctx, "b1", 1, decimal.NewFromInt(-3), now)
		require.NoError(t, err)

		inTx, err := batchRepo.GetByID(ctx, "b1")
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(7).Equal(inTx.CurrentQuantity), "la tx ve su propio cambio")

		require.NoError(t, movRepo.Create(ctx, &entity.StockMovement{BatchID: "b1", ProductID: "p1", Type: entity.MovementTypeOut}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	b, err := s.Batches().GetByID(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(b.CurrentQuantity))
	assert.Equal(t, int64(1), b.Version)
	movs, err := s.Movements().ListByBatch(ctx, "b1")
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestTxRunner_ContextoCanceladoNoConfirma(t *testing.T) {
	s := memory.NewStore()
	seedBatch(t, s, "b1", "L1", 10)
	ctx, cancel := context.WithCancel(context.Background())

	err := memory.NewTxRunner(s).Run(ctx, func(
		batchRepo repository.StockBatchRepository,
		_ repository.StockMovementRepository,
		_ repository.StockAlertRepository,
	) error {
		_, err := batchRepo.ApplyDelta(ctx, "b1", 1, decimal.NewFromInt(-3), now)
		cancel()
		return err
	})
	require.ErrorIs(t, err, context.Canceled)

	b, _ := s.Batches().GetByID(context.Background(), "b1")
	assert.True(t, decimal.NewFromInt(10).Equal(b.CurrentQuantity))
}

func TestTxRunner_ConflictoAlConfirmar(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seedBatch(t, s, "b1", "L1", 10)

	err := memory.NewTxRunner(s).Run(ctx, func(
		batchRepo repository.StockBatchRepository,
		_ repository.StockMovementRepository,
		_ repository.StockAlertRepository,
	) error {
		_, err := batchRepo.ApplyDelta(ctx, "b1", 1, decimal.NewFromInt(-3), now)
		require.NoError(t, err)
		// otra escritura confirmada sobre el mismo lote mientras la tx sigue abierta
		_, err = s.Batches().ApplyDelta(ctx, "b1", 1, decimal.NewFromInt(-1), now)
		require.NoError(t, err)
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrConcurrencyConflict)

	b, _ := s.Batches().GetByID(ctx, "b1")
	assert.True(t, decimal.NewFromInt(9).Equal(b.CurrentQuantity))
}

func TestBatchCreate_NumeroDuplicadoSoloEntreActivos(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	seedBatch(t, s, "b1", "L1", 5)

	dup := &entity.StockBatch{ID: "b2", ProductID: "p1", BatchNumber: "L1", InitialQuantity: decimal.NewFromInt(1), CurrentQuantity: decimal.NewFromInt(1)}
	assert.ErrorIs(t, s.Batches().Create(ctx, dup), domain.ErrDuplicate)

	_, err := s.Batches().ApplyDelta(ctx, "b1", 1, decimal.NewFromInt(-5), now)
	require.NoError(t, err)
	assert.NoError(t, s.Batches().Create(ctx, dup), "un lote agotado libera el número")

	exists, err := s.Batches().ExistsActiveBatchNumber(ctx, "p1", "L1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMovements_SeqYOrden(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repo := s.Movements()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &entity.StockMovement{
			BatchID: "b1", ProductID: "p1", Type: entity.MovementTypeOut, Reference: "ref-1",
			Quantity: decimal.NewFromInt(int64(i + 1)), CreatedAt: now,
		}))
	}

	byBatch, err := repo.ListByBatch(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, byBatch, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{byBatch[0].Seq, byBatch[1].Seq, byBatch[2].Seq})

	byProduct, err := repo.ListByProduct(ctx, "p1", nil, nil, 2, 0)
	require.NoError(t, err)
	require.Len(t, byProduct, 2)
	assert.Equal(t, int64(3), byProduct[0].Seq, "más recientes primero")

	byRef, err := repo.ListByReference(ctx, "ref-1")
	require.NoError(t, err)
	assert.Len(t, byRef, 3)
}

func TestAlerts_UnaAbiertaPorClave(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	repo := s.Alerts()

	a := &entity.StockAlert{ID: "a1", ProductID: "p1", Kind: entity.AlertKindLowStock, Severity: entity.AlertSeverityWarning, CreatedAt: now}
	require.NoError(t, repo.Create(ctx, a))
	assert.ErrorIs(t, repo.Create(ctx, &entity.StockAlert{ProductID: "p1", Kind: entity.AlertKindLowStock}), domain.ErrDuplicate)

	require.NoError(t, repo.Resolve(ctx, "a1", now))
	require.NoError(t, repo.Create(ctx, &entity.StockAlert{ID: "a2", ProductID: "p1", Kind: entity.AlertKindLowStock, CreatedAt: now.Add(time.Hour)}))

	open, err := repo.ListOpenByProduct(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "a2", open[0].ID)

	all, err := repo.List(ctx, repository.AlertFilter{Status: repository.AlertStatusAll})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a2", all[0].ID, "más recientes primero")

	assert.ErrorIs(t, repo.Resolve(ctx, "nope", now), domain.ErrNotFound)
}
