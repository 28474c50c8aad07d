package entity

import "time"

// Severidades de alerta.
const (
	AlertSeverityInfo     = "info"
	AlertSeverityWarning  = "warning"
	AlertSeverityCritical = "critical"
)

// Tipos de alerta.
const (
	AlertKindLowStock     = "low_stock"
	AlertKindExpiringSoon = "expiring_soon"
	AlertKindExpired      = "expired"
	AlertKindOutOfStock   = "out_of_stock"
)

// StockAlert alerta materializada por el motor de estado. Nunca la escribe un usuario.
// BatchID vacío = alerta agregada del producto.
type StockAlert struct {
	ID         string
	ProductID  string
	BatchID    string
	Severity   string
	Kind       string
	Title      string
	Message    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ResolvedAt *time.Time
}

// IsOpen indica si la alerta sigue abierta.
func (a *StockAlert) IsOpen() bool {
	return a.ResolvedAt == nil
}

// Key identifica el objetivo de la alerta: a lo sumo una abierta por clave.
func (a *StockAlert) Key() AlertKey {
	return AlertKey{ProductID: a.ProductID, BatchID: a.BatchID, Kind: a.Kind}
}

// AlertKey (producto, lote, tipo).
type AlertKey struct {
	ProductID string
	BatchID   string
	Kind      string
}
