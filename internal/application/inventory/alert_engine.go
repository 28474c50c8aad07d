package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
	"github.com/jhoicas/clinica-estoque-api/pkg/logger"
)

// postCommitTimeout tiempo máximo del recálculo que sigue a una escritura confirmada.
const postCommitTimeout = 10 * time.Second

// RecomputeResult cuenta lo escrito por una reconciliación.
type RecomputeResult struct {
	Products  int `json:"products"`
	Created   int `json:"created"`
	Resolved  int `json:"resolved"`
	Refreshed int `json:"refreshed"`
}

func (r *RecomputeResult) add(o RecomputeResult) {
	r.Products += o.Products
	r.Created += o.Created
	r.Resolved += o.Resolved
	r.Refreshed += o.Refreshed
}

// AlertEngine materializa las alertas de stock: calcula las deseadas con el evaluador puro
// y las reconcilia contra las abiertas dentro de una transacción.
type AlertEngine struct {
	txRunner    TxRunner
	productRepo repository.ProductRepository
	alertRepo   repository.StockAlertRepository
	cache       StockViewCache
	settings    Settings
	log         *logger.Logger

	mu         sync.Mutex
	reconciled map[string]string // producto -> día de la última reconciliación
}

var _ AlertSync = (*AlertEngine)(nil)

// NewAlertEngine construye el motor. cache puede ser nil.
func NewAlertEngine(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	alertRepo repository.StockAlertRepository,
	cache StockViewCache,
	settings Settings,
	log *logger.Logger,
) *AlertEngine {
	if cache == nil {
		cache = NopViewCache()
	}
	return &AlertEngine{
		txRunner:    txRunner,
		productRepo: productRepo,
		alertRepo:   alertRepo,
		cache:       cache,
		settings:    settings,
		log:         log.Component("alert_engine"),
		reconciled:  make(map[string]string),
	}
}

// Recompute reconcilia las alertas de un producto.
func (e *AlertEngine) Recompute(ctx context.Context, productID string) (*RecomputeResult, error) {
	product, err := e.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("recalcular alertas: %w", err)
	}
	if product == nil {
		return nil, domain.NewNotFoundError("producto", productID)
	}
	res, err := e.recompute(ctx, product)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// RecomputeAll reconcilia todos los productos del catálogo. Un fallo en un producto
// no detiene el resto; los errores se devuelven juntos.
func (e *AlertEngine) RecomputeAll(ctx context.Context) (*RecomputeResult, error) {
	products, err := e.productRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("recalcular alertas: %w", err)
	}
	total := &RecomputeResult{}
	var errs []error
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := e.recompute(ctx, p)
		if err != nil {
			errs = append(errs, fmt.Errorf("producto %s: %w", p.ID, err))
			continue
		}
		total.add(res)
	}
	e.log.Info().
		Int("products", total.Products).
		Int("created", total.Created).
		Int("resolved", total.Resolved).
		Int("refreshed", total.Refreshed).
		Int("errors", len(errs)).
		Msg("reconciliación de alertas completa")
	return total, errors.Join(errs...)
}

// Sync reconcilia los productos que no se reconciliaron hoy. Entre escrituras las alertas solo
// cambian al cruzar un umbral de días, así que basta una reconciliación por producto y día.
// Sin ids recorre todo el catálogo; ids desconocidos se ignoran.
func (e *AlertEngine) Sync(ctx context.Context, productIDs ...string) error {
	today := e.settings.day(e.settings.now())
	var errs []error
	if len(productIDs) == 0 {
		products, err := e.productRepo.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("sincronizar alertas: %w", err)
		}
		for _, p := range products {
			if e.reconciledOn(p.ID) == today {
				continue
			}
			if _, err := e.recompute(ctx, p); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
	for _, id := range productIDs {
		if e.reconciledOn(id) == today {
			continue
		}
		if _, err := e.Recompute(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *AlertEngine) reconciledOn(productID string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.reconciled[productID]
}

func (e *AlertEngine) markReconciled(productID, day string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reconciled[productID] = day
}

// StockChanged se invoca tras confirmar una escritura: invalida la vista en caché y
// recalcula alertas. Los fallos se registran; la escritura ya quedó confirmada.
func (e *AlertEngine) StockChanged(ctx context.Context, productIDs ...string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), postCommitTimeout)
	defer cancel()

	if err := e.cache.Invalidate(ctx, productIDs...); err != nil {
		e.log.Warn().Err(err).Strs("product_ids", productIDs).Msg("no se pudo invalidar la caché de stock")
	}
	for _, id := range productIDs {
		if _, err := e.Recompute(ctx, id); err != nil {
			e.log.Warn().Err(err).Str("product_id", id).Msg("recálculo de alertas falló tras escritura confirmada")
		}
	}
}

// Alerts consulta alertas; por defecto solo abiertas, más recientes primero. Antes de leer
// reconcilia lo que el paso del día pudo cambiar.
func (e *AlertEngine) Alerts(ctx context.Context, filter repository.AlertFilter) ([]*entity.StockAlert, error) {
	switch filter.Status {
	case "":
		filter.Status = repository.AlertStatusOpen
	case repository.AlertStatusOpen, repository.AlertStatusResolved, repository.AlertStatusAll:
	default:
		return nil, domain.NewValidationError("status", "debe ser open, resolved o all")
	}
	switch filter.Severity {
	case "", entity.AlertSeverityInfo, entity.AlertSeverityWarning, entity.AlertSeverityCritical:
	default:
		return nil, domain.NewValidationError("severity", "debe ser info, warning o critical")
	}
	switch filter.Kind {
	case "", entity.AlertKindLowStock, entity.AlertKindExpiringSoon, entity.AlertKindExpired, entity.AlertKindOutOfStock:
	default:
		return nil, domain.NewValidationError("kind", "tipo de alerta desconocido")
	}
	var ids []string
	if filter.ProductID != "" {
		ids = append(ids, filter.ProductID)
	}
	if err := e.Sync(ctx, ids...); err != nil {
		e.log.Warn().Err(err).Str("product_id", filter.ProductID).Msg("alertas listadas sin reconciliar")
	}
	alerts, err := e.alertRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("listar alertas: %w", err)
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	return alerts, nil
}

// recompute una transacción por producto. Si otra reconciliación concurrente creó la misma
// alerta abierta (ErrDuplicate) se reintenta con el estado ya confirmado.
func (e *AlertEngine) recompute(ctx context.Context, product *entity.Product) (RecomputeResult, error) {
	var (
		res RecomputeResult
		now time.Time
	)
	err := withRetry(ctx, e.settings.attempts(), e.log, "recompute_alerts", func() error {
		res = RecomputeResult{Products: 1}
		now = e.settings.now()
		return e.txRunner.Run(ctx, func(
			batchRepo repository.StockBatchRepository,
			_ repository.StockMovementRepository,
			alertRepo repository.StockAlertRepository,
		) error {
			batches, err := batchRepo.ListByProduct(ctx, product.ID)
			if err != nil {
				return err
			}
			open, err := alertRepo.ListOpenByProduct(ctx, product.ID)
			if err != nil {
				return err
			}
			plan := inventory.ReconcileAlerts(e.settings.Evaluator.DesiredAlerts(product, batches, now), open)
			return applyAlertPlan(ctx, alertRepo, plan, now, &res)
		})
	}, domain.ErrDuplicate, domain.ErrConcurrencyConflict)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("recalcular alertas de %s: %w", product.ID, err)
	}
	e.markReconciled(product.ID, e.settings.day(now))
	if res.Created+res.Resolved+res.Refreshed > 0 {
		e.log.Debug().Str("product_id", product.ID).
			Int("created", res.Created).Int("resolved", res.Resolved).Int("refreshed", res.Refreshed).
			Msg("alertas reconciliadas")
	}
	return res, nil
}

func applyAlertPlan(ctx context.Context, alertRepo repository.StockAlertRepository, plan inventory.AlertPlan, now time.Time, res *RecomputeResult) error {
	for _, a := range plan.Resolve {
		if err := alertRepo.Resolve(ctx, a.ID, now); err != nil {
			return err
		}
		res.Resolved++
	}
	for _, a := range plan.Refresh {
		a.UpdatedAt = now
		if err := alertRepo.UpdateDetails(ctx, a); err != nil {
			return err
		}
		res.Refreshed++
	}
	for _, a := range plan.Create {
		a.ID = uuid.New().String()
		a.CreatedAt = now
		a.UpdatedAt = now
		if err := alertRepo.Create(ctx, a); err != nil {
			return err
		}
		res.Created++
	}
	return nil
}
