package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

// StockMovementRepository libro de movimientos en memoria (solo inserción).
type StockMovementRepository struct {
	s  *Store
	tx *tx
}

func (r *StockMovementRepository) view() *tx {
	if r.tx != nil {
		return r.tx
	}
	return newTx(r.s)
}

// Create encola el movimiento; Seq se asigna al confirmar.
func (r *StockMovementRepository) Create(_ context.Context, movement *entity.StockMovement) error {
	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, movement)
		return nil
	}
	return r.s.autocommit(func(t *tx) error {
		t.movements = append(t.movements, movement)
		return nil
	})
}

func (r *StockMovementRepository) ListByBatch(_ context.Context, batchID string) ([]*entity.StockMovement, error) {
	return r.view().movementsView(func(m *entity.StockMovement) bool { return m.BatchID == batchID }), nil
}

func (r *StockMovementRepository) ListByReference(_ context.Context, reference string) ([]*entity.StockMovement, error) {
	if reference == "" {
		return []*entity.StockMovement{}, nil
	}
	return r.view().movementsView(func(m *entity.StockMovement) bool { return m.Reference == reference }), nil
}

func (r *StockMovementRepository) ListByProduct(_ context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	list := r.view().movementsView(func(m *entity.StockMovement) bool {
		if m.ProductID != productID {
			return false
		}
		if from != nil && m.CreatedAt.Before(*from) {
			return false
		}
		if to != nil && m.CreatedAt.After(*to) {
			return false
		}
		return true
	})
	// orden de inserción invertido: más recientes primero
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	if offset >= len(list) {
		return []*entity.StockMovement{}, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}
