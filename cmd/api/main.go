package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/clinica-estoque-api/docs"
	"github.com/jhoicas/clinica-estoque-api/internal/application/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/application/usecase"
	domaininv "github.com/jhoicas/clinica-estoque-api/internal/domain/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
	"github.com/jhoicas/clinica-estoque-api/internal/infrastructure/cache"
	"github.com/jhoicas/clinica-estoque-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/clinica-estoque-api/internal/infrastructure/pdf"
	"github.com/jhoicas/clinica-estoque-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/clinica-estoque-api/internal/interfaces/http"
	"github.com/jhoicas/clinica-estoque-api/pkg/config"
	"github.com/jhoicas/clinica-estoque-api/pkg/logger"
)

// storage repositorios y runner transaccional del driver elegido.
type storage struct {
	runner    inventory.TxRunner
	products  repository.ProductRepository
	batches   repository.StockBatchRepository
	movements repository.StockMovementRepository
	alerts    repository.StockAlertRepository
	close     func()
}

//go:generate swag init --dir ../../ --generalInfo cmd/api/main.go --output ../../docs --parseInternal

// @title                       Clínica Stock API
// @version                     1.0
// @description                 Inventario por lotes de la clínica: entradas, consumos FEFO, alertas y KPIs.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Token JWT con el prefijo "Bearer ".
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		AppName: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Storage).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer store.close()

	loc, err := cfg.Stock.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria de la clínica")
	}
	log = log.Clinic(loc.String())
	settings := inventory.Settings{
		Evaluator: domaininv.NewEvaluator(domaininv.Thresholds{
			ExpiringCriticalDays: cfg.Stock.ExpiringCriticalDays,
			ExpiringWarningDays:  cfg.Stock.ExpiringWarningDays,
			CriticalRatio:        cfg.Stock.CriticalRatio,
		}, loc),
		MaxAttempts: cfg.Stock.ConsumeMaxAttempts,
		Clock:       time.Now,
	}

	// Caché Redis opcional de la vista por producto
	var viewCache inventory.StockViewCache
	if cfg.Redis.URL != "" {
		redisCache, err := cache.NewRedisStockCache(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL)
		if err != nil {
			log.Warn().Err(err).Msg("redis no disponible, se continúa sin caché de stock")
		} else {
			defer redisCache.Close()
			viewCache = redisCache
			log.Info().Dur("ttl", cfg.Redis.CacheTTL).Msg("caché de stock en redis activa")
		}
	}

	alertEngine := inventory.NewAlertEngine(store.runner, store.products, store.alerts, viewCache, settings, log)
	summaryUC := inventory.NewSummaryUseCase(store.products, store.batches, store.alerts, alertEngine, viewCache, settings, log)
	stockDeps := httpRouter.StockHandlerDeps{
		Batches:  inventory.NewBatchUseCase(store.runner, store.products, store.batches, alertEngine, settings, log),
		Consume:  inventory.NewConsumeUseCase(store.runner, store.products, alertEngine, settings, log),
		Ledger:   inventory.NewLedgerUseCase(store.products, store.batches, store.movements),
		Summary:  summaryUC,
		Alerts:   alertEngine,
		Report:   inventory.NewReportUseCase(summaryUC, alertEngine, infrapdf.NewMarotoStockReportGenerator(), cfg.App.Name),
		Location: loc,
	}
	productUC := usecase.NewProductUseCase(store.products, alertEngine)

	sweeper := inventory.NewSweeper(alertEngine, cfg.Stock.SweepInterval, log)
	go sweeper.Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath:    "/",
		FileContent: []byte(docs.SwaggerInfo.ReadDoc()),
		Path:        "docs",
		Title:       docs.SwaggerInfo.Title,
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC: productUC,
		Stock:     stockDeps,
		JWTSecret: cfg.JWT.Secret,
		JWTIssuer: cfg.JWT.Issuer,
		Logger:    log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStorage abre PostgreSQL (aplicando migraciones) o el almacén en memoria.
func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage == config.StorageDriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore()
		return &storage{
			runner:    memory.NewTxRunner(store),
			products:  store.Products(),
			batches:   store.Batches(),
			movements: store.Movements(),
			alerts:    store.Alerts(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}
	return &storage{
		runner:    postgres.NewTxRunner(pool),
		products:  postgres.NewProductRepository(pool),
		batches:   postgres.NewStockBatchRepository(pool),
		movements: postgres.NewStockMovementRepository(pool),
		alerts:    postgres.NewStockAlertRepository(pool),
		close:     pool.Close,
	}, nil
}
