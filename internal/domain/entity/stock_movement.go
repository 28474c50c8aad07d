package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de stock.
const (
	MovementTypeIn           = "in"           // entrada (creación del lote)
	MovementTypeOut          = "out"          // consumo
	MovementTypeAdjustment   = "adjustment"   // ajuste manual con signo
	MovementTypeCancellation = "cancellation" // reversión de un consumo
)

// StockMovement es un asiento inmutable contra un lote.
// Quantity siempre es positiva; Direction (+1/-1) da el sentido.
type StockMovement struct {
	ID                string
	Seq               int64 // orden de inserción, desempata CreatedAt
	BatchID           string
	ProductID         string
	Type              string
	Quantity          decimal.Decimal
	Direction         int
	UnitCost          decimal.Decimal
	TotalCost         decimal.Decimal
	Reason            string
	Reference         string // ítem de facturación, orden de enfermería, etc.
	RelatedMovementID string // cancellation -> movimiento out que revierte
	CreatedAt         time.Time
	CreatedBy         string
}

// SignedQuantity devuelve la cantidad con signo según Direction.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.Direction < 0 {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// DirectionFor devuelve el sentido fijo de cada tipo; para ajustes lo decide el signo del delta.
func DirectionFor(movementType string, delta decimal.Decimal) int {
	switch movementType {
	case MovementTypeOut:
		return -1
	case MovementTypeAdjustment:
		if delta.IsNegative() {
			return -1
		}
		return 1
	default:
		return 1
	}
}
