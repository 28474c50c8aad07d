package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
)

// StockReport datos que alimentan el PDF de stock.
type StockReport struct {
	Title       string
	GeneratedAt time.Time
	Location    *time.Location
	Summary     *StockSummary
	Items       []*entity.StockListItem
	Alerts      []*entity.StockAlert
}

// ReportUseCase arma el reporte de stock y lo delega al generador.
type ReportUseCase struct {
	summary   *SummaryUseCase
	alerts    *AlertEngine
	generator StockReportGenerator
	title     string
}

// NewReportUseCase construye el caso de uso. title suele ser el nombre de la clínica.
func NewReportUseCase(summary *SummaryUseCase, alerts *AlertEngine, generator StockReportGenerator, title string) *ReportUseCase {
	return &ReportUseCase{summary: summary, alerts: alerts, generator: generator, title: title}
}

// Build reúne KPIs, filas por producto y alertas abiertas.
func (uc *ReportUseCase) Build(ctx context.Context) (*StockReport, error) {
	summary, err := uc.summary.Summary(ctx)
	if err != nil {
		return nil, err
	}
	items, err := uc.summary.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	alerts, err := uc.alerts.Alerts(ctx, repository.AlertFilter{Status: repository.AlertStatusOpen})
	if err != nil {
		return nil, err
	}
	return &StockReport{
		Title:       uc.title,
		GeneratedAt: summary.GeneratedAt,
		Location:    uc.summary.settings.Evaluator.Location,
		Summary:     summary,
		Items:       items,
		Alerts:      alerts,
	}, nil
}

// GeneratePDF devuelve los bytes del reporte.
func (uc *ReportUseCase) GeneratePDF(ctx context.Context) ([]byte, error) {
	report, err := uc.Build(ctx)
	if err != nil {
		return nil, err
	}
	pdf, err := uc.generator.GenerateStockReport(ctx, report)
	if err != nil {
		return nil, fmt.Errorf("generar reporte de stock: %w", err)
	}
	return pdf, nil
}
