package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto del catálogo.
type CreateProductRequest struct {
	Name                string          `json:"name" validate:"required,min=1,max=200"`
	Unit                string          `json:"unit" validate:"required"`
	Category            string          `json:"category"`
	MinStock            decimal.Decimal `json:"min_stock" swaggertype:"string"`
	CostPrice           decimal.Decimal `json:"cost_price" swaggertype:"string"`
	DefaultManufacturer string          `json:"default_manufacturer"`
}

// UpdateProductRequest edición de umbral y metadatos. El stock solo cambia vía lotes.
type UpdateProductRequest struct {
	Name                *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Unit                *string          `json:"unit"`
	Category            *string          `json:"category"`
	MinStock            *decimal.Decimal `json:"min_stock" swaggertype:"string"`
	CostPrice           *decimal.Decimal `json:"cost_price" swaggertype:"string"`
	DefaultManufacturer *string          `json:"default_manufacturer"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Unit                string          `json:"unit"`
	Category            string          `json:"category"`
	MinStock            decimal.Decimal `json:"min_stock" swaggertype:"string"`
	CostPrice           decimal.Decimal `json:"cost_price" swaggertype:"string"`
	DefaultManufacturer string          `json:"default_manufacturer"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
