package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBatchRequest body para POST /api/stock/batches. Fechas en formato YYYY-MM-DD.
type CreateBatchRequest struct {
	ProductID         string           `json:"product_id"`
	BatchNumber       string           `json:"batch_number"`
	Manufacturer      string           `json:"manufacturer,omitempty"`
	Supplier          string           `json:"supplier,omitempty"`
	ManufacturingDate string           `json:"manufacturing_date,omitempty"`
	ExpirationDate    string           `json:"expiration_date"`
	PurchaseDate      string           `json:"purchase_date,omitempty"`
	InitialQuantity   decimal.Decimal  `json:"initial_quantity" swaggertype:"string"`
	UnitCost          *decimal.Decimal `json:"unit_cost,omitempty" swaggertype:"string"`
	Location          string           `json:"location,omitempty"`
	InvoiceNumber     string           `json:"invoice_number,omitempty"`
	Notes             string           `json:"notes,omitempty"`
}

// AdjustBatchRequest body para POST /api/stock/batches/:id/adjust. Delta con signo.
type AdjustBatchRequest struct {
	Delta  decimal.Decimal `json:"delta" swaggertype:"string"`
	Reason string          `json:"reason"`
}

// ConsumeRequest body para POST /api/stock/consume.
type ConsumeRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity" swaggertype:"string"`
	Reference string          `json:"reference"`
	Reason    string          `json:"reason,omitempty"`
}

// CancelConsumptionRequest body para POST /api/stock/consume/cancel.
type CancelConsumptionRequest struct {
	Reference string `json:"reference"`
	Reason    string `json:"reason,omitempty"`
}

// BatchResponse lote con su estado derivado.
type BatchResponse struct {
	ID                  string          `json:"id"`
	ProductID           string          `json:"product_id"`
	BatchNumber         string          `json:"batch_number"`
	Manufacturer        string          `json:"manufacturer,omitempty"`
	Supplier            string          `json:"supplier,omitempty"`
	ManufacturingDate   *time.Time      `json:"manufacturing_date,omitempty"`
	ExpirationDate      time.Time       `json:"expiration_date"`
	PurchaseDate        *time.Time      `json:"purchase_date,omitempty"`
	InitialQuantity     decimal.Decimal `json:"initial_quantity" swaggertype:"string"`
	CurrentQuantity     decimal.Decimal `json:"current_quantity" swaggertype:"string"`
	UnitCost            decimal.Decimal `json:"unit_cost" swaggertype:"string"`
	Location            string          `json:"location,omitempty"`
	InvoiceNumber       string          `json:"invoice_number,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	Status              string          `json:"status"`
	DaysUntilExpiration int             `json:"days_until_expiration"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
	CreatedBy           string          `json:"created_by,omitempty"`
}

// MovementResponse asiento del libro de stock.
type MovementResponse struct {
	ID                string          `json:"id"`
	BatchID           string          `json:"batch_id"`
	ProductID         string          `json:"product_id"`
	Type              string          `json:"type"`
	Quantity          decimal.Decimal `json:"quantity" swaggertype:"string"`
	Direction         int             `json:"direction"`
	UnitCost          decimal.Decimal `json:"unit_cost" swaggertype:"string"`
	TotalCost         decimal.Decimal `json:"total_cost" swaggertype:"string"`
	Reason            string          `json:"reason,omitempty"`
	Reference         string          `json:"reference,omitempty"`
	RelatedMovementID string          `json:"related_movement_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	CreatedBy         string          `json:"created_by,omitempty"`
}

// MovementListResponse página de movimientos.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// StockItemResponse vista agregada de stock por producto.
type StockItemResponse struct {
	ProductID           string          `json:"product_id"`
	ProductName         string          `json:"product_name"`
	Unit                string          `json:"unit"`
	Category            string          `json:"category,omitempty"`
	MinStock            decimal.Decimal `json:"min_stock" swaggertype:"string"`
	TotalQuantity       decimal.Decimal `json:"total_quantity" swaggertype:"string"`
	AvailableQuantity   decimal.Decimal `json:"available_quantity" swaggertype:"string"`
	BatchCount          int             `json:"batch_count"`
	NearestExpiration   *time.Time      `json:"nearest_expiration,omitempty"`
	DaysUntilExpiration *int            `json:"days_until_expiration,omitempty"`
	TotalValue          decimal.Decimal `json:"total_value" swaggertype:"string"`
	AverageUnitCost     decimal.Decimal `json:"average_unit_cost" swaggertype:"string"`
	Status              string          `json:"status"`
}

// AlertResponse alerta de stock.
type AlertResponse struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"product_id"`
	BatchID    string     `json:"batch_id,omitempty"`
	Severity   string     `json:"severity"`
	Kind       string     `json:"kind"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// StockSummaryResponse KPIs del tablero de stock.
type StockSummaryResponse struct {
	GeneratedAt       time.Time       `json:"generated_at"`
	TotalProducts     int             `json:"total_products"`
	ByStatus          map[string]int  `json:"by_status"`
	TotalValue        decimal.Decimal `json:"total_value" swaggertype:"string"`
	ExpiringThisMonth int             `json:"expiring_this_month"`
	ExpiredWithStock  int             `json:"expired_with_stock"`
	OpenAlerts        map[string]int  `json:"open_alerts"`
}

// LedgerReportResponse resultado de verificar el libro de un lote.
type LedgerReportResponse struct {
	BatchID            string          `json:"batch_id"`
	ProductID          string          `json:"product_id"`
	InitialQuantity    decimal.Decimal `json:"initial_quantity" swaggertype:"string"`
	CurrentQuantity    decimal.Decimal `json:"current_quantity" swaggertype:"string"`
	ReplayedQuantity   decimal.Decimal `json:"replayed_quantity" swaggertype:"string"`
	TotalIn            decimal.Decimal `json:"total_in" swaggertype:"string"`
	TotalOut           decimal.Decimal `json:"total_out" swaggertype:"string"`
	TotalAdjustments   decimal.Decimal `json:"total_adjustments" swaggertype:"string"`
	TotalCancellations decimal.Decimal `json:"total_cancellations" swaggertype:"string"`
	MovementCount      int             `json:"movement_count"`
	Consistent         bool            `json:"consistent"`
	Issues             []string        `json:"issues"`
}
