package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados derivados de un lote. No se persisten; se recalculan en cada lectura.
const (
	BatchStatusActive   = "active"
	BatchStatusLow      = "low"
	BatchStatusExpiring = "expiring"
	BatchStatusExpired  = "expired"
	BatchStatusDepleted = "depleted"
)

// StockBatch es la unidad física de stock: un lote con vencimiento, costo y saldo propios.
// CurrentQuantity solo cambia a través del libro de movimientos; Version crece en cada cambio
// y es la base del compare-and-set por lote.
type StockBatch struct {
	ID                string
	ProductID         string
	BatchNumber       string
	Manufacturer      string
	Supplier          string
	ManufacturingDate *time.Time
	ExpirationDate    time.Time
	PurchaseDate      *time.Time
	InitialQuantity   decimal.Decimal
	CurrentQuantity   decimal.Decimal
	UnitCost          decimal.Decimal
	Location          string
	InvoiceNumber     string
	Notes             string
	Version           int64
	CreatedAt         time.Time
	UpdatedAt         time.Time
	CreatedBy         string
}

// IsDepleted indica si el lote ya no tiene saldo.
func (b *StockBatch) IsDepleted() bool {
	return !b.CurrentQuantity.IsPositive()
}

// Value devuelve currentQuantity × unitCost.
func (b *StockBatch) Value() decimal.Decimal {
	return b.CurrentQuantity.Mul(b.UnitCost)
}

// Clone devuelve una copia independiente (las fechas opcionales se copian también).
func (b *StockBatch) Clone() *StockBatch {
	if b == nil {
		return nil
	}
	c := *b
	if b.ManufacturingDate != nil {
		t := *b.ManufacturingDate
		c.ManufacturingDate = &t
	}
	if b.PurchaseDate != nil {
		t := *b.PurchaseDate
		c.PurchaseDate = &t
	}
	return &c
}
