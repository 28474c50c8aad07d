package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
	"github.com/jhoicas/clinica-estoque-api/pkg/logger"
)

// ConsumeInput salida de stock de un producto. Reference enlaza con el ítem de facturación
// u orden de enfermería y es la llave para cancelar el consumo.
type ConsumeInput struct {
	ProductID string
	Quantity  decimal.Decimal
	Reference string
	Reason    string
	UserID    string
}

// CancelConsumptionInput reversión de todos los consumos de una referencia.
type CancelConsumptionInput struct {
	Reference string
	Reason    string
	UserID    string
}

// ConsumeUseCase asignador de consumos FEFO y su reversión.
type ConsumeUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	notifier    *AlertEngine
	settings    Settings
	log         *logger.Logger
}

// NewConsumeUseCase construye el caso de uso.
func NewConsumeUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	notifier *AlertEngine,
	settings Settings,
	log *logger.Logger,
) *ConsumeUseCase {
	return &ConsumeUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		notifier:    notifier,
		settings:    settings,
		log:         log.Component("consume_usecase"),
	}
}

// Consume descuenta quantity de los lotes asignables en orden FEFO y escribe un movimiento
// "out" por lote tocado. Todo o nada: si el stock elegible no alcanza devuelve
// *domain.InsufficientStockError sin escribir nada.
func (uc *ConsumeUseCase) Consume(ctx context.Context, in ConsumeInput) ([]*entity.StockMovement, error) {
	in.Reference = strings.TrimSpace(in.Reference)
	if in.ProductID == "" {
		return nil, domain.NewValidationError("product_id", "es obligatorio")
	}
	if !in.Quantity.IsPositive() {
		return nil, domain.NewValidationError("quantity", "debe ser mayor que cero")
	}
	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("consumir: %w", err)
	}
	if product == nil {
		return nil, domain.NewNotFoundError("producto", in.ProductID)
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "consumo"
	}

	var movements []*entity.StockMovement
	err = withRetry(ctx, uc.settings.attempts(), uc.log, "consume", func() error {
		movements = nil
		now := uc.settings.now()
		return uc.txRunner.Run(ctx, func(
			batchRepo repository.StockBatchRepository,
			movRepo repository.StockMovementRepository,
			_ repository.StockAlertRepository,
		) error {
			batches, err := batchRepo.ListByProduct(ctx, product.ID)
			if err != nil {
				return err
			}
			eligible := uc.settings.Evaluator.EligibleForAllocation(batches, now)
			plan, err := inventory.PlanFEFO(product.ID, eligible, in.Quantity)
			if err != nil {
				return err
			}
			for _, a := range plan {
				if _, err := batchRepo.ApplyDelta(ctx, a.BatchID, a.Version, a.Quantity.Neg(), now); err != nil {
					return err
				}
				mov := &entity.StockMovement{
					ID:        uuid.New().String(),
					BatchID:   a.BatchID,
					ProductID: product.ID,
					Type:      entity.MovementTypeOut,
					Quantity:  a.Quantity,
					Direction: entity.DirectionFor(entity.MovementTypeOut, a.Quantity),
					UnitCost:  a.UnitCost,
					TotalCost: a.Quantity.Mul(a.UnitCost),
					Reason:    reason,
					Reference: in.Reference,
					CreatedAt: now,
					CreatedBy: in.UserID,
				}
				if err := movRepo.Create(ctx, mov); err != nil {
					return err
				}
				movements = append(movements, mov)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("product_id", product.ID).Str("quantity", in.Quantity.String()).
		Str("reference", in.Reference).Int("batches", len(movements)).Msg("consumo registrado")
	uc.notifier.StockChanged(ctx, product.ID)
	return movements, nil
}

// CancelConsumption devuelve al mismo lote cada "out" de la referencia que aún no fue revertido
// y escribe un movimiento "cancellation" que lo apunta. Repetir la llamada no revierte dos veces.
func (uc *ConsumeUseCase) CancelConsumption(ctx context.Context, in CancelConsumptionInput) ([]*entity.StockMovement, error) {
	in.Reference = strings.TrimSpace(in.Reference)
	if in.Reference == "" {
		return nil, domain.NewValidationError("reference", "es obligatoria")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = "cancelación de consumo"
	}

	var reversals []*entity.StockMovement
	err := withRetry(ctx, uc.settings.attempts(), uc.log, "cancel_consumption", func() error {
		reversals = nil
		now := uc.settings.now()
		return uc.txRunner.Run(ctx, func(
			batchRepo repository.StockBatchRepository,
			movRepo repository.StockMovementRepository,
			_ repository.StockAlertRepository,
		) error {
			movs, err := movRepo.ListByReference(ctx, in.Reference)
			if err != nil {
				return err
			}
			reversed := make(map[string]bool)
			var outs []*entity.StockMovement
			for _, m := range movs {
				switch m.Type {
				case entity.MovementTypeOut:
					outs = append(outs, m)
				case entity.MovementTypeCancellation:
					reversed[m.RelatedMovementID] = true
				}
			}
			if len(outs) == 0 {
				return domain.NewNotFoundError("consumo", in.Reference)
			}
			for _, out := range outs {
				if reversed[out.ID] {
					continue
				}
				batch, err := batchRepo.GetByID(ctx, out.BatchID)
				if err != nil {
					return err
				}
				if batch == nil {
					return domain.NewNotFoundError("lote", out.BatchID)
				}
				if _, err := batchRepo.ApplyDelta(ctx, batch.ID, batch.Version, out.Quantity, now); err != nil {
					return err
				}
				rev := &entity.StockMovement{
					ID:                uuid.New().String(),
					BatchID:           out.BatchID,
					ProductID:         out.ProductID,
					Type:              entity.MovementTypeCancellation,
					Quantity:          out.Quantity,
					Direction:         entity.DirectionFor(entity.MovementTypeCancellation, out.Quantity),
					UnitCost:          out.UnitCost,
					TotalCost:         out.TotalCost,
					Reason:            reason,
					Reference:         in.Reference,
					RelatedMovementID: out.ID,
					CreatedAt:         now,
					CreatedBy:         in.UserID,
				}
				if err := movRepo.Create(ctx, rev); err != nil {
					return err
				}
				reversals = append(reversals, rev)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if len(reversals) == 0 {
		return []*entity.StockMovement{}, nil
	}

	productIDs := uniqueProductIDs(reversals)
	uc.log.Info().Str("reference", in.Reference).Int("movements", len(reversals)).
		Strs("product_ids", productIDs).Msg("consumo cancelado")
	uc.notifier.StockChanged(ctx, productIDs...)
	return reversals, nil
}

func uniqueProductIDs(movs []*entity.StockMovement) []string {
	seen := make(map[string]bool, len(movs))
	ids := make([]string, 0, len(movs))
	for _, m := range movs {
		if !seen[m.ProductID] {
			seen[m.ProductID] = true
			ids = append(ids, m.ProductID)
		}
	}
	return ids
}
