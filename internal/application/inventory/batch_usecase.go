package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
	"github.com/jhoicas/clinica-estoque-api/pkg/logger"
)

// CreateBatchInput entrada para registrar un lote recibido.
// UnitCost nil toma el costPrice del producto; Manufacturer vacío toma su fabricante por defecto.
type CreateBatchInput struct {
	ProductID         string
	BatchNumber       string
	Manufacturer      string
	Supplier          string
	ManufacturingDate *time.Time
	ExpirationDate    time.Time
	PurchaseDate      *time.Time
	InitialQuantity   decimal.Decimal
	UnitCost          *decimal.Decimal
	Location          string
	InvoiceNumber     string
	Notes             string
	UserID            string
}

// AdjustBatchInput ajuste manual con signo (conteo físico, rotura, etc.).
type AdjustBatchInput struct {
	BatchID string
	Delta   decimal.Decimal
	Reason  string
	UserID  string
}

// BatchView lote con su estado derivado al momento de la consulta.
type BatchView struct {
	Batch               *entity.StockBatch
	Status              string
	DaysUntilExpiration int
}

// BatchUseCase operaciones del almacén de lotes: alta, consulta y ajuste.
type BatchUseCase struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	batchRepo   repository.StockBatchRepository
	notifier    *AlertEngine
	settings    Settings
	log         *logger.Logger
}

// NewBatchUseCase construye el caso de uso.
func NewBatchUseCase(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	batchRepo repository.StockBatchRepository,
	notifier *AlertEngine,
	settings Settings,
	log *logger.Logger,
) *BatchUseCase {
	return &BatchUseCase{
		txRunner:    txRunner,
		productRepo: productRepo,
		batchRepo:   batchRepo,
		notifier:    notifier,
		settings:    settings,
		log:         log.Component("batch_usecase"),
	}
}

// CreateBatch registra el lote con currentQuantity = initialQuantity y su movimiento "in"
// en la misma transacción.
func (uc *BatchUseCase) CreateBatch(ctx context.Context, in CreateBatchInput) (*BatchView, error) {
	in.BatchNumber = strings.TrimSpace(in.BatchNumber)
	if in.ProductID == "" {
		return nil, domain.NewValidationError("product_id", "es obligatorio")
	}
	if in.BatchNumber == "" {
		return nil, domain.NewValidationError("batch_number", "es obligatorio")
	}
	if in.ExpirationDate.IsZero() {
		return nil, domain.NewValidationError("expiration_date", "es obligatoria")
	}
	if !in.InitialQuantity.IsPositive() {
		return nil, domain.NewValidationError("initial_quantity", "debe ser mayor que cero")
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, domain.NewValidationError("unit_cost", "no puede ser negativo")
	}
	if in.ManufacturingDate != nil && in.ManufacturingDate.After(in.ExpirationDate) {
		return nil, domain.NewValidationError("manufacturing_date", "no puede ser posterior al vencimiento")
	}

	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, fmt.Errorf("crear lote: %w", err)
	}
	if product == nil {
		return nil, domain.NewNotFoundError("producto", in.ProductID)
	}

	unitCost := product.CostPrice
	if in.UnitCost != nil {
		unitCost = *in.UnitCost
	}
	manufacturer := strings.TrimSpace(in.Manufacturer)
	if manufacturer == "" {
		manufacturer = product.DefaultManufacturer
	}

	now := uc.settings.now()
	batch := &entity.StockBatch{
		ID:                uuid.New().String(),
		ProductID:         product.ID,
		BatchNumber:       in.BatchNumber,
		Manufacturer:      manufacturer,
		Supplier:          strings.TrimSpace(in.Supplier),
		ManufacturingDate: in.ManufacturingDate,
		ExpirationDate:    in.ExpirationDate,
		PurchaseDate:      in.PurchaseDate,
		InitialQuantity:   in.InitialQuantity,
		CurrentQuantity:   in.InitialQuantity,
		UnitCost:          unitCost,
		Location:          strings.TrimSpace(in.Location),
		InvoiceNumber:     strings.TrimSpace(in.InvoiceNumber),
		Notes:             in.Notes,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
		CreatedBy:         in.UserID,
	}

	err = uc.txRunner.Run(ctx, func(
		batchRepo repository.StockBatchRepository,
		movRepo repository.StockMovementRepository,
		_ repository.StockAlertRepository,
	) error {
		exists, err := batchRepo.ExistsActiveBatchNumber(ctx, product.ID, batch.BatchNumber)
		if err != nil {
			return err
		}
		if exists {
			return duplicateBatchError()
		}
		if err := batchRepo.Create(ctx, batch); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return duplicateBatchError()
			}
			return err
		}
		return movRepo.Create(ctx, &entity.StockMovement{
			ID:        uuid.New().String(),
			BatchID:   batch.ID,
			ProductID: product.ID,
			Type:      entity.MovementTypeIn,
			Quantity:  batch.InitialQuantity,
			Direction: entity.DirectionFor(entity.MovementTypeIn, batch.InitialQuantity),
			UnitCost:  unitCost,
			TotalCost: batch.InitialQuantity.Mul(unitCost),
			Reason:    "entrada de lote",
			Reference: batch.InvoiceNumber,
			CreatedAt: now,
			CreatedBy: in.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("product_id", product.ID).Str("batch_id", batch.ID).
		Str("batch_number", batch.BatchNumber).Str("quantity", batch.InitialQuantity.String()).
		Msg("lote registrado")
	uc.notifier.StockChanged(ctx, product.ID)
	return uc.view(batch, now), nil
}

// GetBatch devuelve el lote con su estado derivado.
func (uc *BatchUseCase) GetBatch(ctx context.Context, batchID string) (*BatchView, error) {
	batch, err := uc.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("obtener lote: %w", err)
	}
	if batch == nil {
		return nil, domain.NewNotFoundError("lote", batchID)
	}
	return uc.view(batch, uc.settings.now()), nil
}

// GetBatchesForProduct lista todos los lotes del producto (incluye agotados y vencidos)
// por vencimiento, compra e id.
func (uc *BatchUseCase) GetBatchesForProduct(ctx context.Context, productID string) ([]*BatchView, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("listar lotes: %w", err)
	}
	if product == nil {
		return nil, domain.NewNotFoundError("producto", productID)
	}
	batches, err := uc.batchRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("listar lotes: %w", err)
	}
	inventory.SortFEFO(batches)
	now := uc.settings.now()
	views := make([]*BatchView, 0, len(batches))
	for _, b := range batches {
		views = append(views, uc.view(b, now))
	}
	return views, nil
}

// AdjustBatch aplica un ajuste con signo y escribe un movimiento "adjustment".
// Nunca recorta al límite: si el saldo saldría de [0, initialQuantity] falla con InvariantViolation.
func (uc *BatchUseCase) AdjustBatch(ctx context.Context, in AdjustBatchInput) (*entity.StockMovement, error) {
	in.Reason = strings.TrimSpace(in.Reason)
	if in.BatchID == "" {
		return nil, domain.NewValidationError("batch_id", "es obligatorio")
	}
	if in.Delta.IsZero() {
		return nil, domain.NewValidationError("delta", "no puede ser cero")
	}
	if in.Reason == "" {
		return nil, domain.NewValidationError("reason", "es obligatorio")
	}

	var mov *entity.StockMovement
	var productID string
	err := withRetry(ctx, uc.settings.attempts(), uc.log, "adjust_batch", func() error {
		now := uc.settings.now()
		return uc.txRunner.Run(ctx, func(
			batchRepo repository.StockBatchRepository,
			movRepo repository.StockMovementRepository,
			_ repository.StockAlertRepository,
		) error {
			batch, err := batchRepo.GetByID(ctx, in.BatchID)
			if err != nil {
				return err
			}
			if batch == nil {
				return domain.NewNotFoundError("lote", in.BatchID)
			}
			if _, err := batchRepo.ApplyDelta(ctx, batch.ID, batch.Version, in.Delta, now); err != nil {
				return err
			}
			qty := in.Delta.Abs()
			mov = &entity.StockMovement{
				ID:        uuid.New().String(),
				BatchID:   batch.ID,
				ProductID: batch.ProductID,
				Type:      entity.MovementTypeAdjustment,
				Quantity:  qty,
				Direction: entity.DirectionFor(entity.MovementTypeAdjustment, in.Delta),
				UnitCost:  batch.UnitCost,
				TotalCost: qty.Mul(batch.UnitCost),
				Reason:    in.Reason,
				CreatedAt: now,
				CreatedBy: in.UserID,
			}
			productID = batch.ProductID
			return movRepo.Create(ctx, mov)
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Str("batch_id", in.BatchID).Str("delta", in.Delta.String()).
		Str("reason", in.Reason).Msg("lote ajustado")
	uc.notifier.StockChanged(ctx, productID)
	return mov, nil
}

func (uc *BatchUseCase) view(b *entity.StockBatch, now time.Time) *BatchView {
	ev := uc.settings.Evaluator
	return &BatchView{
		Batch:               b,
		Status:              ev.BatchStatus(b, now),
		DaysUntilExpiration: ev.DaysUntilExpiration(b.ExpirationDate, now),
	}
}

func duplicateBatchError() error {
	return domain.NewValidationError("batch_number", "ya existe un lote con saldo con ese número para el producto")
}
