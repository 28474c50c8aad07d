package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un SKU del catálogo (medicamento o material).
// Los datos de stock viven en los lotes; aquí solo umbral y metadatos.
type Product struct {
	ID                  string
	Name                string
	Unit                string // "mg", "un", "ml"...
	Category            string
	MinStock            decimal.Decimal // umbral de stock mínimo
	CostPrice           decimal.Decimal // costo unitario por defecto para nuevos lotes
	DefaultManufacturer string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
