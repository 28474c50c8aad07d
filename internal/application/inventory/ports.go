package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error (o el contexto se cancela antes del commit) se descarta todo.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		batchRepo repository.StockBatchRepository,
		movRepo repository.StockMovementRepository,
		alertRepo repository.StockAlertRepository,
	) error) error
}

// StockViewCache caché de la vista agregada por producto. day (YYYY-MM-DD en la zona de la
// clínica) forma parte de la entrada porque los días al vencimiento cambian a medianoche.
// Cada producto tiene una generación que Invalidate incrementa: Set guarda bajo la generación
// leída antes de calcular la vista, así una vista calculada con datos previos a una escritura
// concurrente nunca se sirve.
type StockViewCache interface {
	// Get devuelve la entrada vigente para ese día (nil si no hay) y la generación actual.
	Get(ctx context.Context, productID, day string) (*entity.StockListItem, int64, error)
	Set(ctx context.Context, day string, generation int64, item *entity.StockListItem) error
	Invalidate(ctx context.Context, productIDs ...string) error
}

// AlertSync pone al día las alertas que cambian solo con el paso del tiempo
// (umbrales de vencimiento). Sin ids recorre todo el catálogo.
type AlertSync interface {
	Sync(ctx context.Context, productIDs ...string) error
}

// StockReportGenerator renderiza el reporte de stock (PDF).
type StockReportGenerator interface {
	GenerateStockReport(ctx context.Context, report *StockReport) ([]byte, error)
}

// Clock fuente de tiempo inyectable.
type Clock func() time.Time

// nopViewCache se usa cuando no hay Redis configurado.
type nopViewCache struct{}

func (nopViewCache) Get(context.Context, string, string) (*entity.StockListItem, int64, error) {
	return nil, 0, nil
}
func (nopViewCache) Set(context.Context, string, int64, *entity.StockListItem) error { return nil }
func (nopViewCache) Invalidate(context.Context, ...string) error                     { return nil }

// NopViewCache caché que nunca guarda nada.
func NopViewCache() StockViewCache { return nopViewCache{} }
