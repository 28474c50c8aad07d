package inventory_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	appinventory "github.com/jhoicas/clinica-estoque-api/internal/application/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
	"github.com/jhoicas/clinica-estoque-api/internal/infrastructure/memory"
	"github.com/jhoicas/clinica-estoque-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var testNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

type harness struct {
	now      time.Time
	store    *memory.Store
	settings appinventory.Settings
	engine   *appinventory.AlertEngine
	batches  *appinventory.BatchUseCase
	consume  *appinventory.ConsumeUseCase
	ledger   *appinventory.LedgerUseCase
	summary  *appinventory.SummaryUseCase
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	consumeRunner func(appinventory.TxRunner) appinventory.TxRunner
	cache         appinventory.StockViewCache
	maxAttempts   int
}

func withConsumeRunner(wrap func(appinventory.TxRunner) appinventory.TxRunner) harnessOption {
	return func(c *harnessConfig) { c.consumeRunner = wrap }
}

func withCache(cache appinventory.StockViewCache) harnessOption {
	return func(c *harnessConfig) { c.cache = cache }
}

func withMaxAttempts(n int) harnessOption {
	return func(c *harnessConfig) { c.maxAttempts = n }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	cfg := harnessConfig{maxAttempts: 3}
	for _, o := range opts {
		o(&cfg)
	}

	store := memory.NewStore()
	runner := appinventory.TxRunner(memory.NewTxRunner(store))
	consumeRunner := runner
	if cfg.consumeRunner != nil {
		consumeRunner = cfg.consumeRunner(runner)
	}
	h := &harness{now: testNow, store: store}
	settings := appinventory.Settings{
		Evaluator:   inventory.NewEvaluator(inventory.DefaultThresholds(), time.UTC),
		MaxAttempts: cfg.maxAttempts,
		Clock:       func() time.Time { return h.now },
	}
	log := logger.Nop()

	engine := appinventory.NewAlertEngine(runner, store.Products(), store.Alerts(), cfg.cache, settings, log)
	h.settings = settings
	h.engine = engine
	h.batches = appinventory.NewBatchUseCase(runner, store.Products(), store.Batches(), engine, settings, log)
	h.consume = appinventory.NewConsumeUseCase(consumeRunner, store.Products(), engine, settings, log)
	h.ledger = appinventory.NewLedgerUseCase(store.Products(), store.Batches(), store.Movements())
	h.summary = appinventory.NewSummaryUseCase(store.Products(), store.Batches(), store.Alerts(), engine, cfg.cache, settings, log)
	return h
}

// advance mueve el reloj sin escribir nada.
func (h *harness) advance(days int) {
	h.now = h.now.AddDate(0, 0, days)
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func (h *harness) product(t *testing.T, id, name, minStock string) *entity.Product {
	t.Helper()
	p := &entity.Product{
		ID:        id,
		Name:      name,
		Unit:      "un",
		MinStock:  d(minStock),
		CostPrice: d("1.5"),
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	require.NoError(t, h.store.Products().Create(context.Background(), p))
	return p
}

func (h *harness) batch(t *testing.T, productID, number string, daysToExpire int, qty string) *entity.StockBatch {
	t.Helper()
	view, err := h.batches.CreateBatch(context.Background(), appinventory.CreateBatchInput{
		ProductID:       productID,
		BatchNumber:     number,
		ExpirationDate:  testNow.AddDate(0, 0, daysToExpire),
		InitialQuantity: d(qty),
		UserID:          "u-farmacia",
	})
	require.NoError(t, err)
	return view.Batch
}

func (h *harness) current(t *testing.T, batchID string) decimal.Decimal {
	t.Helper()
	b, err := h.store.Batches().GetByID(context.Background(), batchID)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b.CurrentQuantity
}

func (h *harness) openAlerts(t *testing.T, productID string) map[entity.AlertKey]*entity.StockAlert {
	t.Helper()
	list, err := h.store.Alerts().ListOpenByProduct(context.Background(), productID)
	require.NoError(t, err)
	out := make(map[entity.AlertKey]*entity.StockAlert, len(list))
	for _, a := range list {
		out[a.Key()] = a
	}
	return out
}

// conflictRunner hace fallar ApplyDelta con conflicto en las primeras `failures` transacciones.
type conflictRunner struct {
	inner    appinventory.TxRunner
	failures int32
	calls    int32
}

func (r *conflictRunner) Run(ctx context.Context, fn func(
	batchRepo repository.StockBatchRepository,
	movRepo repository.StockMovementRepository,
	alertRepo repository.StockAlertRepository,
) error) error {
	atomic.AddInt32(&r.calls, 1)
	return r.inner.Run(ctx, func(
		batchRepo repository.StockBatchRepository,
		movRepo repository.StockMovementRepository,
		alertRepo repository.StockAlertRepository,
	) error {
		if atomic.AddInt32(&r.failures, -1) >= 0 {
			return fn(conflictingBatchRepo{batchRepo}, movRepo, alertRepo)
		}
		return fn(batchRepo, movRepo, alertRepo)
	})
}

type conflictingBatchRepo struct {
	repository.StockBatchRepository
}

func (conflictingBatchRepo) ApplyDelta(context.Context, string, int64, decimal.Decimal, time.Time) (*entity.StockBatch, error) {
	return nil, domain.ErrConcurrencyConflict
}

// recordingCache caché en memoria con generaciones por producto, para verificar lecturas
// e invalidaciones. beforeSet se ejecuta una vez justo antes de guardar.
type recordingCache struct {
	items       map[string]*entity.StockListItem
	days        map[string]string
	stored      map[string]int64
	generations map[string]int64
	invalidated []string
	beforeSet   func()
}

func newRecordingCache() *recordingCache {
	return &recordingCache{
		items:       map[string]*entity.StockListItem{},
		days:        map[string]string{},
		stored:      map[string]int64{},
		generations: map[string]int64{},
	}
}

func (c *recordingCache) Get(_ context.Context, productID, day string) (*entity.StockListItem, int64, error) {
	gen := c.generations[productID]
	if c.days[productID] != day || c.stored[productID] != gen {
		return nil, gen, nil
	}
	return c.items[productID], gen, nil
}

func (c *recordingCache) Set(_ context.Context, day string, generation int64, item *entity.StockListItem) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.items[item.ProductID] = item
	c.days[item.ProductID] = day
	c.stored[item.ProductID] = generation
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, productIDs ...string) error {
	for _, id := range productIDs {
		c.generations[id]++
		delete(c.items, id)
		delete(c.days, id)
		c.invalidated = append(c.invalidated, id)
	}
	return nil
}
