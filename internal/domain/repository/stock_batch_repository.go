package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

// StockBatchRepository define el puerto de persistencia de lotes.
// Dentro de una transacción (TxRunner) las escrituras son atómicas con los movimientos.
type StockBatchRepository interface {
	// Create inserta el lote. Devuelve domain.ErrDuplicate si el batchNumber ya existe
	// en otro lote con saldo del mismo producto.
	Create(ctx context.Context, batch *entity.StockBatch) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.StockBatch, error)
	// ListByProduct devuelve los lotes ordenados por vencimiento, compra e id.
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockBatch, error)
	ListAll(ctx context.Context) ([]*entity.StockBatch, error)
	// ExistsActiveBatchNumber indica si hay un lote con saldo y ese número para el producto.
	ExistsActiveBatchNumber(ctx context.Context, productID, batchNumber string) (bool, error)
	// ApplyDelta es el compare-and-set por lote: aplica delta solo si la versión almacenada
	// es expectedVersion. domain.ErrConcurrencyConflict si perdió la carrera,
	// *domain.InvariantViolationError si el saldo saldría de [0, initialQuantity].
	ApplyDelta(ctx context.Context, batchID string, expectedVersion int64, delta decimal.Decimal, at time.Time) (*entity.StockBatch, error)
}
