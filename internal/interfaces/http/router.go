package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-estoque-api/internal/application/usecase"
	"github.com/jhoicas/clinica-estoque-api/pkg/jwt"
	"github.com/jhoicas/clinica-estoque-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC *usecase.ProductUseCase
	Stock     StockHandlerDeps
	JWTSecret string
	JWTIssuer string
	Logger    *logger.Logger
}

// Router registra las rutas de la API. Todo /api exige Bearer Token.
//
// Roles:
//   - admin: catálogo, ajustes manuales y recálculo de alertas.
//   - farmacia: entrada de lotes y consumos.
//   - enfermeria: consumos y cancelaciones.
//   - cualquier rol autenticado: consultas.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	protected := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	adminOnly := RequireRole(jwt.RoleAdmin)
	receivers := RequireRole(jwt.RoleAdmin, jwt.RolePharmacy)
	consumers := RequireRole(jwt.RoleAdmin, jwt.RolePharmacy, jwt.RoleNursing)

	// Products (catálogo)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC, log)
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", adminOnly, productHandler.Update)

	// Stock (lotes, consumos, alertas y vistas)
	stock := protected.Group("/stock")
	h := NewStockHandler(deps.Stock, log)

	stock.Post("/batches", receivers, h.CreateBatch)
	stock.Get("/batches/:id", h.GetBatch)
	stock.Post("/batches/:id/adjust", adminOnly, h.AdjustBatch)
	stock.Get("/batches/:id/movements", h.BatchMovements)
	stock.Get("/batches/:id/ledger", h.VerifyLedger)

	stock.Get("/products", h.ListProducts)
	stock.Get("/products/:id", h.GetProductStock)
	stock.Get("/products/:id/batches", h.ProductBatches)
	stock.Get("/products/:id/movements", h.ProductMovements)

	stock.Post("/consume", consumers, h.Consume)
	stock.Post("/consume/cancel", consumers, h.CancelConsumption)

	stock.Get("/alerts", h.Alerts)
	stock.Post("/alerts/recompute", adminOnly, h.RecomputeAlerts)

	stock.Get("/summary", h.Summary)
	stock.Get("/report.pdf", h.Report)
}
