package http

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-estoque-api/internal/application/dto"
	"github.com/jhoicas/clinica-estoque-api/internal/application/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
	"github.com/jhoicas/clinica-estoque-api/pkg/logger"
)

const dateLayout = "2006-01-02"

// StockHandler expone lotes, consumos, alertas y vistas de stock (protegido).
type StockHandler struct {
	batches *inventory.BatchUseCase
	consume *inventory.ConsumeUseCase
	ledger  *inventory.LedgerUseCase
	summary *inventory.SummaryUseCase
	alerts  *inventory.AlertEngine
	report  *inventory.ReportUseCase
	loc     *time.Location
	log     *logger.Logger
}

// StockHandlerDeps casos de uso que necesita el handler. loc es la zona de la clínica
// con la que se interpretan las fechas YYYY-MM-DD.
type StockHandlerDeps struct {
	Batches  *inventory.BatchUseCase
	Consume  *inventory.ConsumeUseCase
	Ledger   *inventory.LedgerUseCase
	Summary  *inventory.SummaryUseCase
	Alerts   *inventory.AlertEngine
	Report   *inventory.ReportUseCase
	Location *time.Location
}

// NewStockHandler construye el handler.
func NewStockHandler(deps StockHandlerDeps, log *logger.Logger) *StockHandler {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &StockHandler{
		batches: deps.Batches,
		consume: deps.Consume,
		ledger:  deps.Ledger,
		summary: deps.Summary,
		alerts:  deps.Alerts,
		report:  deps.Report,
		loc:     loc,
		log:     log.Component("stock_handler"),
	}
}

// CreateBatch godoc
// @Summary      Registrar lote recibido
// @Description  Crea el lote con saldo igual a la cantidad inicial y su movimiento de entrada.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBatchRequest  true  "Lote"
// @Success      201   {object}  dto.BatchResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/batches [post]
func (h *StockHandler) CreateBatch(c *fiber.Ctx) error {
	var in dto.CreateBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	expiration, err := h.parseDate("expiration_date", in.ExpirationDate)
	if err != nil {
		return respondError(c, h.log, err)
	}
	if expiration == nil {
		return respondError(c, h.log, domain.NewValidationError("expiration_date", "es obligatoria"))
	}
	manufacturing, err := h.parseDate("manufacturing_date", in.ManufacturingDate)
	if err != nil {
		return respondError(c, h.log, err)
	}
	purchase, err := h.parseDate("purchase_date", in.PurchaseDate)
	if err != nil {
		return respondError(c, h.log, err)
	}
	view, err := h.batches.CreateBatch(c.UserContext(), inventory.CreateBatchInput{
		ProductID:         in.ProductID,
		BatchNumber:       in.BatchNumber,
		Manufacturer:      in.Manufacturer,
		Supplier:          in.Supplier,
		ManufacturingDate: manufacturing,
		ExpirationDate:    *expiration,
		PurchaseDate:      purchase,
		InitialQuantity:   in.InitialQuantity,
		UnitCost:          in.UnitCost,
		Location:          in.Location,
		InvoiceNumber:     in.InvoiceNumber,
		Notes:             in.Notes,
		UserID:            GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toBatchResponse(view))
}

// GetBatch godoc
// @Summary      Obtener lote
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/batches/{id} [get]
func (h *StockHandler) GetBatch(c *fiber.Ctx) error {
	view, err := h.batches.GetBatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toBatchResponse(view))
}

// AdjustBatch godoc
// @Summary      Ajuste manual de lote
// @Description  Delta con signo (conteo físico, rotura). Nunca se recorta al rango válido.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del lote"
// @Param        body  body  dto.AdjustBatchRequest  true  "delta y motivo"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/stock/batches/{id}/adjust [post]
func (h *StockHandler) AdjustBatch(c *fiber.Ctx) error {
	var in dto.AdjustBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	mov, err := h.batches.AdjustBatch(c.UserContext(), inventory.AdjustBatchInput{
		BatchID: c.Params("id"),
		Delta:   in.Delta,
		Reason:  in.Reason,
		UserID:  GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(mov))
}

// BatchMovements godoc
// @Summary      Movimientos de un lote
// @Description  Historial completo en orden de creación.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {array}   dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/batches/{id}/movements [get]
func (h *StockHandler) BatchMovements(c *fiber.Ctx) error {
	movs, err := h.ledger.MovementsForBatch(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toMovementResponses(movs))
}

// VerifyLedger godoc
// @Summary      Verificar libro de un lote
// @Description  Reproduce los movimientos y compara con el saldo guardado.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del lote"
// @Success      200  {object}  dto.LedgerReportResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/batches/{id}/ledger [get]
func (h *StockHandler) VerifyLedger(c *fiber.Ctx) error {
	report, err := h.ledger.VerifyBatchLedger(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toLedgerResponse(report))
}

// ListProducts godoc
// @Summary      Stock por producto
// @Description  Un renglón por producto con stock o umbral; primero los más urgentes.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StockItemResponse
// @Router       /api/stock/products [get]
func (h *StockHandler) ListProducts(c *fiber.Ctx) error {
	items, err := h.summary.ListProducts(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.StockItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toStockItemResponse(it))
	}
	return c.JSON(out)
}

// GetProductStock godoc
// @Summary      Stock de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockItemResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id} [get]
func (h *StockHandler) GetProductStock(c *fiber.Ctx) error {
	item, err := h.summary.GetProductStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toStockItemResponse(item))
}

// ProductBatches godoc
// @Summary      Lotes de un producto
// @Description  Incluye agotados, en orden FEFO, con estado y días a vencer.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}   dto.BatchResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/batches [get]
func (h *StockHandler) ProductBatches(c *fiber.Ctx) error {
	views, err := h.batches.GetBatchesForProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.BatchResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toBatchResponse(v))
	}
	return c.JSON(out)
}

// ProductMovements godoc
// @Summary      Movimientos de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        from    query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to      query  string  false  "Hasta, inclusive (YYYY-MM-DD)"
// @Param        limit   query  int     false  "Máximo de resultados (1-500)"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.MovementListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/products/{id}/movements [get]
func (h *StockHandler) ProductMovements(c *fiber.Ctx) error {
	from, err := h.parseDate("from", c.Query("from"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	to, err := h.parseDate("to", c.Query("to"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	if to != nil {
		end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
		to = &end
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		return respondError(c, h.log, err)
	}
	offset, err := queryInt(c, "offset")
	if err != nil {
		return respondError(c, h.log, err)
	}
	movs, err := h.ledger.MovementsForProduct(c.UserContext(), c.Params("id"), from, to, limit, offset)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: toMovementResponses(movs),
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	})
}

// Consume godoc
// @Summary      Consumir stock (FEFO)
// @Description  Descuenta de los lotes vigentes que vencen primero. Todo o nada.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeRequest  true  "producto, cantidad y referencia"
// @Success      201   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.InsufficientStockResponse
// @Router       /api/stock/consume [post]
func (h *StockHandler) Consume(c *fiber.Ctx) error {
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	movs, err := h.consume.Consume(c.UserContext(), inventory.ConsumeInput{
		ProductID: in.ProductID,
		Quantity:  in.Quantity,
		Reference: in.Reference,
		Reason:    in.Reason,
		UserID:    GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponses(movs))
}

// CancelConsumption godoc
// @Summary      Cancelar consumo
// @Description  Devuelve al mismo lote lo consumido con la referencia. Repetir no duplica.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CancelConsumptionRequest  true  "referencia"
// @Success      200   {array}   dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/consume/cancel [post]
func (h *StockHandler) CancelConsumption(c *fiber.Ctx) error {
	var in dto.CancelConsumptionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	movs, err := h.consume.CancelConsumption(c.UserContext(), inventory.CancelConsumptionInput{
		Reference: in.Reference,
		Reason:    in.Reason,
		UserID:    GetUserID(c),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(toMovementResponses(movs))
}

// Alerts godoc
// @Summary      Alertas de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        status      query  string  false  "open (defecto), resolved o all"
// @Param        severity    query  string  false  "info, warning o critical"
// @Param        kind        query  string  false  "low_stock, out_of_stock, expiring_soon o expired"
// @Param        product_id  query  string  false  "Filtrar por producto"
// @Success      200  {array}   dto.AlertResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/stock/alerts [get]
func (h *StockHandler) Alerts(c *fiber.Ctx) error {
	alerts, err := h.alerts.Alerts(c.UserContext(), repository.AlertFilter{
		Status:    c.Query("status"),
		Severity:  c.Query("severity"),
		Kind:      c.Query("kind"),
		ProductID: c.Query("product_id"),
	})
	if err != nil {
		return respondError(c, h.log, err)
	}
	out := make([]dto.AlertResponse, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, toAlertResponse(a))
	}
	return c.JSON(out)
}

// RecomputeAlerts godoc
// @Summary      Recalcular alertas
// @Description  Reconcilia las alertas de todo el catálogo (vencimientos por paso del tiempo).
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  inventory.RecomputeResult
// @Router       /api/stock/alerts/recompute [post]
func (h *StockHandler) RecomputeAlerts(c *fiber.Ctx) error {
	res, err := h.alerts.RecomputeAll(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(res)
}

// Summary godoc
// @Summary      KPIs de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockSummaryResponse
// @Router       /api/stock/summary [get]
func (h *StockHandler) Summary(c *fiber.Ctx) error {
	s, err := h.summary.Summary(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.StockSummaryResponse{
		GeneratedAt:       s.GeneratedAt,
		TotalProducts:     s.TotalProducts,
		ByStatus:          s.ByStatus,
		TotalValue:        s.TotalValue,
		ExpiringThisMonth: s.ExpiringThisMonth,
		ExpiredWithStock:  s.ExpiredWithStock,
		OpenAlerts:        s.OpenAlerts,
	})
}

// Report godoc
// @Summary      Reporte PDF de stock
// @Tags         stock
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/stock/report.pdf [get]
func (h *StockHandler) Report(c *fiber.Ctx) error {
	if h.report == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "REPORT_DISABLED", Message: "reporte PDF no configurado"})
	}
	pdf, err := h.report.GeneratePDF(c.UserContext())
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `inline; filename="stock-`+time.Now().In(h.loc).Format(dateLayout)+`.pdf"`)
	return c.Send(pdf)
}

// parseDate interpreta YYYY-MM-DD (o RFC3339) en la zona de la clínica. Vacío -> nil.
func (h *StockHandler) parseDate(field, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, value, h.loc)
	if err != nil {
		t, err = time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, domain.NewValidationError(field, "fecha inválida, use YYYY-MM-DD")
		}
	}
	return &t, nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(key, "debe ser un entero no negativo")
	}
	return n, nil
}
