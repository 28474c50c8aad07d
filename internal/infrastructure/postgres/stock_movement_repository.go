package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, seq, batch_id, product_id, type, quantity, direction, unit_cost, total_cost,
	reason, reference, related_movement_id, created_at, created_by`

// StockMovementRepo libro de movimientos sobre PostgreSQL. Solo inserción.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta el movimiento y completa ID y Seq. Una segunda cancelación del mismo
// consumo choca con ux_stock_movements_cancellation y se informa como conflicto.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, batch_id, product_id, type, quantity, direction, unit_cost, total_cost,
			reason, reference, related_movement_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.BatchID, m.ProductID, m.Type, m.Quantity, m.Direction, m.UnitCost, m.TotalCost,
		m.Reason, m.Reference, emptyToNil(m.RelatedMovementID), m.CreatedAt, m.CreatedBy,
	).Scan(&m.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			if violatedConstraint(err) == constraintCancellationOnce {
				return domain.ErrConcurrencyConflict
			}
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// ListByBatch historial del lote en orden de inserción.
func (r *StockMovementRepo) ListByBatch(ctx context.Context, batchID string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE batch_id = $1 ORDER BY seq`, batchID)
}

// ListByReference movimientos de una referencia en orden de inserción.
func (r *StockMovementRepo) ListByReference(ctx context.Context, reference string) ([]*entity.StockMovement, error) {
	return r.list(ctx, `SELECT `+movementColumns+` FROM stock_movements WHERE reference = $1 ORDER BY seq`, reference)
}

// ListByProduct más recientes primero, opcionalmente acotado a [from, to].
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT ` + movementColumns + ` FROM stock_movements WHERE product_id = $1`)
	args := []any{productID}
	if from != nil {
		args = append(args, *from)
		fmt.Fprintf(&sb, " AND created_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		fmt.Fprintf(&sb, " AND created_at <= $%d", len(args))
	}
	args = append(args, limit, offset)
	fmt.Fprintf(&sb, " ORDER BY created_at DESC, seq DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	return r.list(ctx, sb.String(), args...)
}

func (r *StockMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockMovement, 0)
	for rows.Next() {
		var (
			m       entity.StockMovement
			related *string
		)
		if err := rows.Scan(&m.ID, &m.Seq, &m.BatchID, &m.ProductID, &m.Type, &m.Quantity, &m.Direction,
			&m.UnitCost, &m.TotalCost, &m.Reason, &m.Reference, &related, &m.CreatedAt, &m.CreatedBy); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		if related != nil {
			m.RelatedMovementID = *related
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
