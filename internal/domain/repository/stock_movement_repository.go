package repository

import (
	"context"
	"time"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

// StockMovementRepository define el puerto del libro de movimientos (solo inserción).
type StockMovementRepository interface {
	// Create asigna ID y Seq si faltan.
	Create(ctx context.Context, movement *entity.StockMovement) error
	// ListByBatch devuelve el historial completo del lote en orden de creación.
	ListByBatch(ctx context.Context, batchID string) ([]*entity.StockMovement, error)
	// ListByReference devuelve los movimientos de una referencia en orden de creación.
	ListByReference(ctx context.Context, reference string) ([]*entity.StockMovement, error)
	// ListByProduct lista movimientos de un producto, más recientes primero.
	ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
}
