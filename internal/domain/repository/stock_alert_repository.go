package repository

import (
	"context"
	"time"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

// Filtros de estado para alertas.
const (
	AlertStatusOpen     = "open"
	AlertStatusResolved = "resolved"
	AlertStatusAll      = "all"
)

// AlertFilter filtro de consulta de alertas. Campos vacíos no filtran.
type AlertFilter struct {
	Status    string
	Severity  string
	Kind      string
	ProductID string
}

// StockAlertRepository define el puerto de persistencia de alertas.
type StockAlertRepository interface {
	// Create inserta una alerta abierta. Si ya existe una abierta con la misma clave
	// devuelve domain.ErrDuplicate.
	Create(ctx context.Context, alert *entity.StockAlert) error
	ListOpenByProduct(ctx context.Context, productID string) ([]*entity.StockAlert, error)
	Resolve(ctx context.Context, id string, at time.Time) error
	// UpdateDetails refresca severidad, título y mensaje sin tocar id ni createdAt.
	UpdateDetails(ctx context.Context, alert *entity.StockAlert) error
	List(ctx context.Context, filter AlertFilter) ([]*entity.StockAlert, error)
}
