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

var _ repository.StockAlertRepository = (*StockAlertRepo)(nil)

const alertColumns = `id, product_id, batch_id, severity, kind, title, message, created_at, updated_at, resolved_at`

// StockAlertRepo alertas materializadas sobre PostgreSQL.
type StockAlertRepo struct {
	q Querier
}

// NewStockAlertRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockAlertRepository(q Querier) *StockAlertRepo {
	return &StockAlertRepo{q: q}
}

// Create inserta una alerta abierta; ux_stock_alerts_open garantiza una por clave.
func (r *StockAlertRepo) Create(ctx context.Context, a *entity.StockAlert) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `INSERT INTO stock_alerts (` + alertColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL)`
	_, err := r.q.Exec(ctx, query,
		a.ID, a.ProductID, a.BatchID, a.Severity, a.Kind, a.Title, a.Message, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert stock alert: %w", err)
	}
	return nil
}

// ListOpenByProduct alertas abiertas del producto, más recientes primero.
func (r *StockAlertRepo) ListOpenByProduct(ctx context.Context, productID string) ([]*entity.StockAlert, error) {
	return r.list(ctx, `SELECT `+alertColumns+` FROM stock_alerts
		WHERE product_id = $1 AND resolved_at IS NULL ORDER BY created_at DESC, id`, productID)
}

// Resolve cierra la alerta. Resolver una ya resuelta no cambia la fecha original.
func (r *StockAlertRepo) Resolve(ctx context.Context, id string, at time.Time) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE stock_alerts SET resolved_at = COALESCE(resolved_at, $2), updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("resolve stock alert: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NewNotFoundError("alerta", id)
	}
	return nil
}

// UpdateDetails refresca severidad, título y mensaje.
func (r *StockAlertRepo) UpdateDetails(ctx context.Context, a *entity.StockAlert) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE stock_alerts SET severity = $2, title = $3, message = $4, updated_at = $5 WHERE id = $1`,
		a.ID, a.Severity, a.Title, a.Message, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update stock alert: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.NewNotFoundError("alerta", a.ID)
	}
	return nil
}

// List aplica el filtro; más recientes primero.
func (r *StockAlertRepo) List(ctx context.Context, filter repository.AlertFilter) ([]*entity.StockAlert, error) {
	var (
		conds []string
		args  []any
	)
	switch filter.Status {
	case repository.AlertStatusOpen, "":
		conds = append(conds, "resolved_at IS NULL")
	case repository.AlertStatusResolved:
		conds = append(conds, "resolved_at IS NOT NULL")
	}
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("severity", filter.Severity)
	add("kind", filter.Kind)
	add("product_id", filter.ProductID)

	query := `SELECT ` + alertColumns + ` FROM stock_alerts`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	return r.list(ctx, query, args...)
}

func (r *StockAlertRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockAlert, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock alerts: %w", err)
	}
	defer rows.Close()
	list := make([]*entity.StockAlert, 0)
	for rows.Next() {
		var a entity.StockAlert
		if err := rows.Scan(&a.ID, &a.ProductID, &a.BatchID, &a.Severity, &a.Kind, &a.Title, &a.Message,
			&a.CreatedAt, &a.UpdatedAt, &a.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan stock alert: %w", err)
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}
