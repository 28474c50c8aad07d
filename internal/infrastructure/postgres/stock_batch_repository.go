package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
)

var _ repository.StockBatchRepository = (*StockBatchRepo)(nil)

const batchColumns = `id, product_id, batch_number, manufacturer, supplier, manufacturing_date, expiration_date,
	purchase_date, initial_quantity, current_quantity, unit_cost, location, invoice_number, notes,
	version, created_at, updated_at, created_by`

// orden FEFO: vencimiento, luego compra (o creación) y por último id.
const fefoOrder = `ORDER BY expiration_date, COALESCE(purchase_date, created_at), id`

// StockBatchRepo lotes sobre PostgreSQL (usable con pool o tx).
type StockBatchRepo struct {
	q Querier
}

// NewStockBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockBatchRepository(q Querier) *StockBatchRepo {
	return &StockBatchRepo{q: q}
}

// Create inserta el lote. El índice parcial ux_stock_batches_active_number rechaza un número
// repetido entre lotes con saldo del mismo producto.
func (r *StockBatchRepo) Create(ctx context.Context, b *entity.StockBatch) error {
	query := `INSERT INTO stock_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.ProductID, b.BatchNumber, b.Manufacturer, b.Supplier, b.ManufacturingDate, b.ExpirationDate,
		b.PurchaseDate, b.InitialQuantity, b.CurrentQuantity, b.UnitCost, b.Location, b.InvoiceNumber, b.Notes,
		b.Version, b.CreatedAt, b.UpdatedAt, b.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock batch: %w", err)
	}
	return nil
}

// GetByID obtiene un lote; (nil, nil) si no existe.
func (r *StockBatchRepo) GetByID(ctx context.Context, id string) (*entity.StockBatch, error) {
	b, err := scanBatch(r.q.QueryRow(ctx, `SELECT `+batchColumns+` FROM stock_batches WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock batch: %w", err)
	}
	return b, nil
}

// ListByProduct todos los lotes del producto (incluye agotados) en orden FEFO.
func (r *StockBatchRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockBatch, error) {
	return r.list(ctx, `SELECT `+batchColumns+` FROM stock_batches WHERE product_id = $1 `+fefoOrder, productID)
}

// ListAll todos los lotes en orden FEFO.
func (r *StockBatchRepo) ListAll(ctx context.Context) ([]*entity.StockBatch, error) {
	return r.list(ctx, `SELECT `+batchColumns+` FROM stock_batches `+fefoOrder)
}

// ExistsActiveBatchNumber indica si hay un lote con saldo y ese número para el producto.
func (r *StockBatchRepo) ExistsActiveBatchNumber(ctx context.Context, productID, batchNumber string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM stock_batches
			WHERE product_id = $1 AND batch_number = $2 AND current_quantity > 0
		)`, productID, batchNumber).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists batch number: %w", err)
	}
	return exists, nil
}

// ApplyDelta compare-and-set: un único UPDATE condicionado a la versión y al rango.
// Si no afecta filas se relee el lote para distinguir inexistente, conflicto o invariante.
func (r *StockBatchRepo) ApplyDelta(ctx context.Context, batchID string, expectedVersion int64, delta decimal.Decimal, at time.Time) (*entity.StockBatch, error) {
	query := `
		UPDATE stock_batches
		SET current_quantity = current_quantity + $3, version = version + 1, updated_at = $4
		WHERE id = $1 AND version = $2
			AND current_quantity + $3 >= 0 AND current_quantity + $3 <= initial_quantity
		RETURNING ` + batchColumns
	updated, err := scanBatch(r.q.QueryRow(ctx, query, batchID, expectedVersion, delta, at))
	if err == nil {
		return updated, nil
	}
	if isUniqueViolation(err) && violatedConstraint(err) == constraintActiveBatchNumber {
		return nil, fmt.Errorf("lote %s: otro lote con saldo ya usa su número: %w", batchID, domain.ErrConflict)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("apply delta: %w", err)
	}

	current, err := r.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, domain.NewNotFoundError("lote", batchID)
	}
	if current.Version != expectedVersion {
		return nil, domain.ErrConcurrencyConflict
	}
	return nil, &domain.InvariantViolationError{
		BatchID: batchID,
		Current: current.CurrentQuantity,
		Delta:   delta,
		Initial: current.InitialQuantity,
	}
}

func (r *StockBatchRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockBatch, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock batches: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockBatch, 0)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func scanBatch(row rowScanner) (*entity.StockBatch, error) {
	var b entity.StockBatch
	err := row.Scan(
		&b.ID, &b.ProductID, &b.BatchNumber, &b.Manufacturer, &b.Supplier, &b.ManufacturingDate, &b.ExpirationDate,
		&b.PurchaseDate, &b.InitialQuantity, &b.CurrentQuantity, &b.UnitCost, &b.Location, &b.InvoiceNumber, &b.Notes,
		&b.Version, &b.CreatedAt, &b.UpdatedAt, &b.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
