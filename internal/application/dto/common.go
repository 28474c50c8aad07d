package dto

import "github.com/shopspring/decimal"

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit" validate:"min=1,max=100"`
	Offset int `query:"offset" validate:"min=0"`
}

// DefaultPage aplica valores por defecto si Limit/Offset son cero.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// Clamp aplica los valores por defecto y acota Limit.
func (p *PageRequest) Clamp(max int) {
	p.DefaultPage()
	if p.Limit > max {
		p.Limit = max
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// InsufficientStockResponse cuerpo 409 cuando el stock elegible no alcanza.
type InsufficientStockResponse struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	ProductID string          `json:"product_id"`
	Required  decimal.Decimal `json:"required" swaggertype:"string"`
	Available decimal.Decimal `json:"available" swaggertype:"string"`
}
