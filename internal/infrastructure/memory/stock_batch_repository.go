package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/inventory"
)

// StockBatchRepository lotes en memoria. Con tx != nil opera sobre la transacción.
type StockBatchRepository struct {
	s  *Store
	tx *tx
}

func (r *StockBatchRepository) run(fn func(t *tx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.s.autocommit(fn)
}

func (r *StockBatchRepository) view() *tx {
	if r.tx != nil {
		return r.tx
	}
	return newTx(r.s)
}

func (r *StockBatchRepository) Create(_ context.Context, batch *entity.StockBatch) error {
	return r.run(func(t *tx) error {
		if _, exists := t.batches[batch.ID]; exists {
			return domain.ErrDuplicate
		}
		taken := t.batchesView(func(b *entity.StockBatch) bool {
			return b.ID == batch.ID ||
				(b.ProductID == batch.ProductID && b.BatchNumber == batch.BatchNumber && !b.IsDepleted())
		})
		if len(taken) > 0 {
			return domain.ErrDuplicate
		}
		t.batches[batch.ID] = &batchWork{batch: batch.Clone(), created: true, dirty: true}
		t.batchOrder = append(t.batchOrder, batch.ID)
		return nil
	})
}

func (r *StockBatchRepository) GetByID(_ context.Context, id string) (*entity.StockBatch, error) {
	t := r.view()
	if w, ok := t.batches[id]; ok {
		return w.batch.Clone(), nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if b, ok := r.s.batches[id]; ok {
		return b.Clone(), nil
	}
	return nil, nil
}

func (r *StockBatchRepository) ListByProduct(_ context.Context, productID string) ([]*entity.StockBatch, error) {
	list := r.view().batchesView(func(b *entity.StockBatch) bool { return b.ProductID == productID })
	inventory.SortFEFO(list)
	return list, nil
}

func (r *StockBatchRepository) ListAll(_ context.Context) ([]*entity.StockBatch, error) {
	list := r.view().batchesView(func(*entity.StockBatch) bool { return true })
	inventory.SortFEFO(list)
	return list, nil
}

func (r *StockBatchRepository) ExistsActiveBatchNumber(_ context.Context, productID, batchNumber string) (bool, error) {
	found := r.view().batchesView(func(b *entity.StockBatch) bool {
		return b.ProductID == productID && b.BatchNumber == batchNumber && !b.IsDepleted()
	})
	return len(found) > 0, nil
}

func (r *StockBatchRepository) ApplyDelta(_ context.Context, batchID string, expectedVersion int64, delta decimal.Decimal, at time.Time) (*entity.StockBatch, error) {
	var updated *entity.StockBatch
	err := r.run(func(t *tx) error {
		w := t.loadBatch(batchID)
		if w == nil {
			return domain.NewNotFoundError("lote", batchID)
		}
		if w.batch.Version != expectedVersion {
			return domain.ErrConcurrencyConflict
		}
		next := w.batch.CurrentQuantity.Add(delta)
		if next.IsNegative() || next.GreaterThan(w.batch.InitialQuantity) {
			return &domain.InvariantViolationError{
				BatchID: batchID,
				Current: w.batch.CurrentQuantity,
				Delta:   delta,
				Initial: w.batch.InitialQuantity,
			}
		}
		w.batch.CurrentQuantity = next
		w.batch.Version++
		w.batch.UpdatedAt = at
		w.dirty = true
		updated = w.batch.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
