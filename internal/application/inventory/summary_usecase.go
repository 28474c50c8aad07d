package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
	"github.com/jhoicas/clinica-estoque-api/pkg/logger"
)

// StockSummary KPIs del tablero de stock.
type StockSummary struct {
	GeneratedAt       time.Time
	TotalProducts     int            // productos listados
	ByStatus          map[string]int // ok, low, critical, out
	TotalValue        decimal.Decimal
	ExpiringThisMonth int // lotes con saldo que vencen entre hoy y fin de mes
	ExpiredWithStock  int
	OpenAlerts        map[string]int // por severidad
}

// SummaryUseCase vistas agregadas por producto y KPIs. Todo se deriva de catálogo + lotes.
type SummaryUseCase struct {
	productRepo repository.ProductRepository
	batchRepo   repository.StockBatchRepository
	alertRepo   repository.StockAlertRepository
	alertSync   AlertSync
	cache       StockViewCache
	settings    Settings
	log         *logger.Logger
}

// NewSummaryUseCase construye el caso de uso. alertSync y cache pueden ser nil.
func NewSummaryUseCase(
	productRepo repository.ProductRepository,
	batchRepo repository.StockBatchRepository,
	alertRepo repository.StockAlertRepository,
	alertSync AlertSync,
	cache StockViewCache,
	settings Settings,
	log *logger.Logger,
) *SummaryUseCase {
	if cache == nil {
		cache = NopViewCache()
	}
	return &SummaryUseCase{
		productRepo: productRepo,
		batchRepo:   batchRepo,
		alertRepo:   alertRepo,
		alertSync:   alertSync,
		cache:       cache,
		settings:    settings,
		log:         log.Component("summary_usecase"),
	}
}

// ListProducts una fila por producto con lotes con saldo o minStock > 0,
// ordenadas por severidad (out, critical, low, ok) y luego por nombre.
func (uc *SummaryUseCase) ListProducts(ctx context.Context) ([]*entity.StockListItem, error) {
	products, batches, err := uc.loadCatalogAndBatches(ctx)
	if err != nil {
		return nil, err
	}
	return uc.listed(products, batches, uc.settings.now()), nil
}

// GetProductStock vista agregada de un producto. Usa la caché si está configurada.
func (uc *SummaryUseCase) GetProductStock(ctx context.Context, productID string) (*entity.StockListItem, error) {
	now := uc.settings.now()
	day := uc.settings.day(now)
	cacheable := true
	item, generation, err := uc.cache.Get(ctx, productID, day)
	if err != nil {
		cacheable = false
		uc.log.Warn().Err(err).Str("product_id", productID).Msg("lectura de caché de stock falló")
	} else if item != nil {
		return item, nil
	}

	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("stock del producto: %w", err)
	}
	if product == nil {
		return nil, domain.NewNotFoundError("producto", productID)
	}
	batches, err := uc.batchRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("stock del producto: %w", err)
	}
	item = uc.settings.Evaluator.Summarize(product, batches, now)
	if cacheable {
		if err := uc.cache.Set(ctx, day, generation, item); err != nil {
			uc.log.Warn().Err(err).Str("product_id", productID).Msg("escritura de caché de stock falló")
		}
	}
	return item, nil
}

// Summary conteos por estado, valor total, vencimientos del mes y alertas abiertas.
func (uc *SummaryUseCase) Summary(ctx context.Context) (*StockSummary, error) {
	if uc.alertSync != nil {
		if err := uc.alertSync.Sync(ctx); err != nil {
			uc.log.Warn().Err(err).Msg("alertas del resumen sin reconciliar")
		}
	}
	var (
		products []*entity.Product
		batches  []*entity.StockBatch
		alerts   []*entity.StockAlert
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = uc.productRepo.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		batches, err = uc.batchRepo.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		alerts, err = uc.alertRepo.List(gctx, repository.AlertFilter{Status: repository.AlertStatusOpen})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resumen de stock: %w", err)
	}

	now := uc.settings.now()
	ev := uc.settings.Evaluator
	items := uc.listed(products, batches, now)

	s := &StockSummary{
		GeneratedAt:   now,
		TotalProducts: len(items),
		ByStatus: map[string]int{
			entity.ProductStatusOK:       0,
			entity.ProductStatusLow:      0,
			entity.ProductStatusCritical: 0,
			entity.ProductStatusOut:      0,
		},
		TotalValue: decimal.Zero,
		OpenAlerts: map[string]int{
			entity.AlertSeverityInfo:     0,
			entity.AlertSeverityWarning:  0,
			entity.AlertSeverityCritical: 0,
		},
	}
	for _, item := range items {
		s.ByStatus[item.Status]++
		s.TotalValue = s.TotalValue.Add(item.TotalValue)
	}

	today := ev.StartOfDay(now)
	lastDayOfMonth := time.Date(today.Year(), today.Month()+1, 0, 12, 0, 0, 0, today.Location())
	daysToMonthEnd := ev.DaysUntilExpiration(lastDayOfMonth, now)
	for _, b := range batches {
		if b.IsDepleted() {
			continue
		}
		days := ev.DaysUntilExpiration(b.ExpirationDate, now)
		if days >= 0 && days <= daysToMonthEnd {
			s.ExpiringThisMonth++
		}
		if days <= 0 {
			s.ExpiredWithStock++
		}
	}
	for _, a := range alerts {
		s.OpenAlerts[a.Severity]++
	}
	return s, nil
}

func (uc *SummaryUseCase) loadCatalogAndBatches(ctx context.Context) ([]*entity.Product, []*entity.StockBatch, error) {
	var (
		products []*entity.Product
		batches  []*entity.StockBatch
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = uc.productRepo.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		batches, err = uc.batchRepo.ListAll(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("listar stock: %w", err)
	}
	return products, batches, nil
}

func (uc *SummaryUseCase) listed(products []*entity.Product, batches []*entity.StockBatch, now time.Time) []*entity.StockListItem {
	byProduct := make(map[string][]*entity.StockBatch, len(products))
	for _, b := range batches {
		byProduct[b.ProductID] = append(byProduct[b.ProductID], b)
	}
	items := make([]*entity.StockListItem, 0, len(products))
	for _, p := range products {
		item := uc.settings.Evaluator.Summarize(p, byProduct[p.ID], now)
		if inventory.IsListed(p, item) {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := inventory.StatusRank(items[i].Status), inventory.StatusRank(items[j].Status)
		if ri != rj {
			return ri < rj
		}
		if items[i].ProductName != items[j].ProductName {
			return items[i].ProductName < items[j].ProductName
		}
		return items[i].ProductID < items[j].ProductID
	})
	return items
}
