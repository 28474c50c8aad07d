package inventory

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

// Allocation una deducción planificada contra un lote.
type Allocation struct {
	BatchID       string
	BatchNumber   string
	Version       int64 // versión leída; el compare-and-set la exige
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	FullyConsumed bool
}

// SortFEFO ordena en sitio: vencimiento ascendente, luego fecha de compra
// (o de creación si no hay), luego id.
func SortFEFO(batches []*entity.StockBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		a, b := batches[i], batches[j]
		if !a.ExpirationDate.Equal(b.ExpirationDate) {
			return a.ExpirationDate.Before(b.ExpirationDate)
		}
		pa, pb := purchaseOrCreation(a), purchaseOrCreation(b)
		if !pa.Equal(pb) {
			return pa.Before(pb)
		}
		return a.ID < b.ID
	})
}

func purchaseOrCreation(b *entity.StockBatch) time.Time {
	if b.PurchaseDate != nil {
		return *b.PurchaseDate
	}
	return b.CreatedAt
}

// EligibleForAllocation filtra los lotes asignables y los devuelve en orden FEFO.
// Los vencidos quedan fuera aunque tengan saldo; solo se mueven por ajuste.
func (e Evaluator) EligibleForAllocation(batches []*entity.StockBatch, now time.Time) []*entity.StockBatch {
	eligible := make([]*entity.StockBatch, 0, len(batches))
	for _, b := range batches {
		if e.IsAllocatable(b, now) {
			eligible = append(eligible, b)
		}
	}
	SortFEFO(eligible)
	return eligible
}

// AvailableQuantity suma el saldo de los lotes.
func AvailableQuantity(batches []*entity.StockBatch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		total = total.Add(b.CurrentQuantity)
	}
	return total
}

// PlanFEFO recorre los lotes elegibles (ya ordenados) y descuenta min(restante, saldo) de cada uno.
// Si el total no alcanza devuelve *domain.InsufficientStockError y ningún plan.
func PlanFEFO(productID string, eligible []*entity.StockBatch, quantity decimal.Decimal) ([]Allocation, error) {
	if !quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	available := AvailableQuantity(eligible)
	if available.LessThan(quantity) {
		return nil, &domain.InsufficientStockError{
			ProductID: productID,
			Required:  quantity,
			Available: available,
		}
	}

	remaining := quantity
	plan := make([]Allocation, 0, len(eligible))
	for _, b := range eligible {
		if !remaining.IsPositive() {
			break
		}
		if b.IsDepleted() {
			continue
		}
		take := decimal.Min(remaining, b.CurrentQuantity)
		plan = append(plan, Allocation{
			BatchID:       b.ID,
			BatchNumber:   b.BatchNumber,
			Version:       b.Version,
			Quantity:      take,
			UnitCost:      b.UnitCost,
			FullyConsumed: take.Equal(b.CurrentQuantity),
		})
		remaining = remaining.Sub(take)
	}
	return plan, nil
}
