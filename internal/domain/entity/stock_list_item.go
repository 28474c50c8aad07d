package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de producto (derivados).
const (
	ProductStatusOK       = "ok"
	ProductStatusLow      = "low"
	ProductStatusCritical = "critical"
	ProductStatusOut      = "out"
)

// StockListItem vista agregada por producto. Puramente derivada de catálogo + lotes.
type StockListItem struct {
	ProductID           string
	ProductName         string
	Unit                string
	Category            string
	MinStock            decimal.Decimal
	TotalQuantity       decimal.Decimal // lotes no agotados, incluye vencidos
	AvailableQuantity   decimal.Decimal // lotes asignables (con saldo y no vencidos)
	BatchCount          int
	NearestExpiration   *time.Time
	DaysUntilExpiration *int
	TotalValue          decimal.Decimal
	AverageUnitCost     decimal.Decimal
	Status              string
}
