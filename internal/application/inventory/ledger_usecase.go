package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
)

const (
	defaultMovementPage = 50
	maxMovementPage     = 500
)

// LedgerReport resultado de reproducir el libro de un lote.
type LedgerReport struct {
	BatchID            string
	ProductID          string
	InitialQuantity    decimal.Decimal
	CurrentQuantity    decimal.Decimal
	ReplayedQuantity   decimal.Decimal
	TotalIn            decimal.Decimal
	TotalOut           decimal.Decimal
	TotalAdjustments   decimal.Decimal // con signo
	TotalCancellations decimal.Decimal
	MovementCount      int
	Consistent         bool
	Issues             []string
}

// LedgerUseCase consultas de auditoría sobre el libro de movimientos.
type LedgerUseCase struct {
	productRepo repository.ProductRepository
	batchRepo   repository.StockBatchRepository
	movRepo     repository.StockMovementRepository
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(
	productRepo repository.ProductRepository,
	batchRepo repository.StockBatchRepository,
	movRepo repository.StockMovementRepository,
) *LedgerUseCase {
	return &LedgerUseCase{productRepo: productRepo, batchRepo: batchRepo, movRepo: movRepo}
}

// MovementsForBatch historial completo del lote en orden de creación.
func (uc *LedgerUseCase) MovementsForBatch(ctx context.Context, batchID string) ([]*entity.StockMovement, error) {
	if _, err := uc.requireBatch(ctx, batchID); err != nil {
		return nil, err
	}
	movs, err := uc.movRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("movimientos del lote: %w", err)
	}
	return movs, nil
}

// VerifyBatchLedger reproduce los movimientos y comprueba la conservación:
// current = Σin − Σout + Σajustes + Σcancelaciones, con un único "in" igual a initialQuantity
// y el saldo acumulado siempre dentro de [0, initialQuantity].
func (uc *LedgerUseCase) VerifyBatchLedger(ctx context.Context, batchID string) (*LedgerReport, error) {
	batch, err := uc.requireBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	movs, err := uc.movRepo.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("verificar libro: %w", err)
	}
	return ReplayLedger(batch, movs), nil
}

// ReplayLedger función pura de verificación; movs debe venir en orden de creación.
func ReplayLedger(batch *entity.StockBatch, movs []*entity.StockMovement) *LedgerReport {
	r := &LedgerReport{
		BatchID:            batch.ID,
		ProductID:          batch.ProductID,
		InitialQuantity:    batch.InitialQuantity,
		CurrentQuantity:    batch.CurrentQuantity,
		ReplayedQuantity:   decimal.Zero,
		TotalIn:            decimal.Zero,
		TotalOut:           decimal.Zero,
		TotalAdjustments:   decimal.Zero,
		TotalCancellations: decimal.Zero,
		MovementCount:      len(movs),
	}
	ins := 0
	for _, m := range movs {
		switch m.Type {
		case entity.MovementTypeIn:
			ins++
			r.TotalIn = r.TotalIn.Add(m.Quantity)
		case entity.MovementTypeOut:
			r.TotalOut = r.TotalOut.Add(m.Quantity)
		case entity.MovementTypeAdjustment:
			r.TotalAdjustments = r.TotalAdjustments.Add(m.SignedQuantity())
		case entity.MovementTypeCancellation:
			r.TotalCancellations = r.TotalCancellations.Add(m.Quantity)
		default:
			r.Issues = append(r.Issues, fmt.Sprintf("movimiento %s con tipo desconocido %q", m.ID, m.Type))
		}
		r.ReplayedQuantity = r.ReplayedQuantity.Add(m.SignedQuantity())
		if r.ReplayedQuantity.IsNegative() || r.ReplayedQuantity.GreaterThan(batch.InitialQuantity) {
			r.Issues = append(r.Issues, fmt.Sprintf("saldo %s fuera de rango tras el movimiento %s",
				r.ReplayedQuantity.String(), m.ID))
		}
	}
	if ins != 1 {
		r.Issues = append(r.Issues, fmt.Sprintf("se esperaba un movimiento de entrada, hay %d", ins))
	}
	if !r.TotalIn.Equal(batch.InitialQuantity) {
		r.Issues = append(r.Issues, fmt.Sprintf("entradas %s distintas de la cantidad inicial %s",
			r.TotalIn.String(), batch.InitialQuantity.String()))
	}
	if !r.ReplayedQuantity.Equal(batch.CurrentQuantity) {
		r.Issues = append(r.Issues, fmt.Sprintf("saldo reproducido %s distinto del saldo actual %s",
			r.ReplayedQuantity.String(), batch.CurrentQuantity.String()))
	}
	r.Consistent = len(r.Issues) == 0
	return r
}

// MovementsForProduct movimientos del producto, más recientes primero, opcionalmente
// acotados a [from, to].
func (uc *LedgerUseCase) MovementsForProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("movimientos del producto: %w", err)
	}
	if product == nil {
		return nil, domain.NewNotFoundError("producto", productID)
	}
	if from != nil && to != nil && from.After(*to) {
		return nil, domain.NewValidationError("from", "debe ser anterior a to")
	}
	if limit <= 0 {
		limit = defaultMovementPage
	}
	if limit > maxMovementPage {
		limit = maxMovementPage
	}
	if offset < 0 {
		offset = 0
	}
	movs, err := uc.movRepo.ListByProduct(ctx, productID, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("movimientos del producto: %w", err)
	}
	return movs, nil
}

func (uc *LedgerUseCase) requireBatch(ctx context.Context, batchID string) (*entity.StockBatch, error) {
	batch, err := uc.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("obtener lote: %w", err)
	}
	if batch == nil {
		return nil, domain.NewNotFoundError("lote", batchID)
	}
	return batch, nil
}
