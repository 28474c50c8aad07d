package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/clinica-estoque-api/internal/application/dto"
	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
)

// StockChangeNotifier recibe los productos cuyo estado derivado pudo cambiar
// (vista en caché y alertas). Lo implementa el motor de alertas.
type StockChangeNotifier interface {
	StockChanged(ctx context.Context, productIDs ...string)
}

// ProductUseCase casos de uso del catálogo. El stock se maneja vía lotes y movimientos.
type ProductUseCase struct {
	repo     repository.ProductRepository
	notifier StockChangeNotifier
	now      func() time.Time
}

// NewProductUseCase construye el caso de uso. notifier puede ser nil.
func NewProductUseCase(repo repository.ProductRepository, notifier StockChangeNotifier) *ProductUseCase {
	return &ProductUseCase{repo: repo, notifier: notifier, now: time.Now}
}

// Create crea un producto del catálogo.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Name == "" {
		return nil, domain.NewValidationError("name", "es obligatorio")
	}
	if in.Unit == "" {
		return nil, domain.NewValidationError("unit", "es obligatoria")
	}
	if err := validateNonNegative("min_stock", in.MinStock); err != nil {
		return nil, err
	}
	if err := validateNonNegative("cost_price", in.CostPrice); err != nil {
		return nil, err
	}

	now := uc.now()
	product := &entity.Product{
		ID:                  uuid.New().String(),
		Name:                in.Name,
		Unit:                in.Unit,
		Category:            strings.TrimSpace(in.Category),
		MinStock:            in.MinStock,
		CostPrice:           in.CostPrice,
		DefaultManufacturer: strings.TrimSpace(in.DefaultManufacturer),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("crear producto: %w", err)
	}
	uc.notify(ctx, product.ID)
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NewNotFoundError("producto", id)
	}
	return toProductResponse(product), nil
}

// Update aplica ediciones de umbral y metadatos. Un cambio de minStock recalcula alertas.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NewNotFoundError("producto", id)
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "no puede quedar vacío")
		}
		product.Name = name
	}
	if in.Unit != nil {
		unit := strings.TrimSpace(*in.Unit)
		if unit == "" {
			return nil, domain.NewValidationError("unit", "no puede quedar vacía")
		}
		product.Unit = unit
	}
	if in.Category != nil {
		product.Category = strings.TrimSpace(*in.Category)
	}
	if in.MinStock != nil {
		if err := validateNonNegative("min_stock", *in.MinStock); err != nil {
			return nil, err
		}
		product.MinStock = *in.MinStock
	}
	if in.CostPrice != nil {
		if err := validateNonNegative("cost_price", *in.CostPrice); err != nil {
			return nil, err
		}
		product.CostPrice = *in.CostPrice
	}
	if in.DefaultManufacturer != nil {
		product.DefaultManufacturer = strings.TrimSpace(*in.DefaultManufacturer)
	}
	product.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("actualizar producto: %w", err)
	}
	uc.notify(ctx, product.ID)
	return toProductResponse(product), nil
}

// List lista el catálogo con paginación, ordenado por nombre.
func (uc *ProductUseCase) List(ctx context.Context, limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

func (uc *ProductUseCase) notify(ctx context.Context, productID string) {
	if uc.notifier != nil {
		uc.notifier.StockChanged(ctx, productID)
	}
}

func validateNonNegative(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return domain.NewValidationError(field, "no puede ser negativo")
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:                  p.ID,
		Name:                p.Name,
		Unit:                p.Unit,
		Category:            p.Category,
		MinStock:            p.MinStock,
		CostPrice:           p.CostPrice,
		DefaultManufacturer: p.DefaultManufacturer,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
}
