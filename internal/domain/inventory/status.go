package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

// DeriveProductStatus clasifica un producto por su cantidad disponible (primera coincidencia gana):
// out, critical (<= minStock*ratio), low (<= minStock), ok.
func DeriveProductStatus(available, minStock, criticalRatio decimal.Decimal) string {
	switch {
	case !available.IsPositive():
		return entity.ProductStatusOut
	case available.LessThanOrEqual(minStock.Mul(criticalRatio)):
		return entity.ProductStatusCritical
	case available.LessThanOrEqual(minStock):
		return entity.ProductStatusLow
	}
	return entity.ProductStatusOK
}

// StatusRank orden de severidad para listados (out primero).
func StatusRank(status string) int {
	switch status {
	case entity.ProductStatusOut:
		return 0
	case entity.ProductStatusCritical:
		return 1
	case entity.ProductStatusLow:
		return 2
	}
	return 3
}

// Summarize construye la vista agregada del producto a partir de todos sus lotes.
func (e Evaluator) Summarize(product *entity.Product, batches []*entity.StockBatch, now time.Time) *entity.StockListItem {
	item := &entity.StockListItem{
		ProductID:         product.ID,
		ProductName:       product.Name,
		Unit:              product.Unit,
		Category:          product.Category,
		MinStock:          product.MinStock,
		TotalQuantity:     decimal.Zero,
		AvailableQuantity: decimal.Zero,
		TotalValue:        decimal.Zero,
		AverageUnitCost:   decimal.Zero,
	}
	for _, b := range batches {
		if b.IsDepleted() {
			continue
		}
		item.BatchCount++
		item.TotalQuantity = item.TotalQuantity.Add(b.CurrentQuantity)
		if item.NearestExpiration == nil || b.ExpirationDate.Before(*item.NearestExpiration) {
			exp := b.ExpirationDate
			item.NearestExpiration = &exp
		}
		if !e.IsAllocatable(b, now) {
			continue
		}
		item.AverageUnitCost = WeightedAverageCost(item.AvailableQuantity, item.AverageUnitCost, b.CurrentQuantity, b.UnitCost)
		item.AvailableQuantity = item.AvailableQuantity.Add(b.CurrentQuantity)
		item.TotalValue = item.TotalValue.Add(b.Value())
	}
	if item.NearestExpiration != nil {
		days := e.DaysUntilExpiration(*item.NearestExpiration, now)
		item.DaysUntilExpiration = &days
	}
	item.Status = DeriveProductStatus(item.AvailableQuantity, product.MinStock, e.Thresholds.CriticalRatio)
	return item
}

// IsListed un producto aparece en el listado si tiene algún lote con saldo o un mínimo > 0.
func IsListed(product *entity.Product, item *entity.StockListItem) bool {
	return item.BatchCount > 0 || product.MinStock.IsPositive()
}
