// Package pdf genera el reporte de stock de la clínica.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Clínica + título        │  Fecha de generación     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  KPIs: productos por estado / valor / vencimientos          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Estado | Disp. | Total | Mín | Vence     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ALERTAS ABIERTAS: Severidad | Título | Mensaje             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jhoicas/clinica-estoque-api/internal/application/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary  = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray     = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite    = &props.Color{Red: 255, Green: 255, Blue: 255}
	colorCritical = &props.Color{Red: 180, Green: 30, Blue: 30}
	colorWarning  = &props.Color{Red: 190, Green: 120, Blue: 0}
)

var statusLabels = map[string]string{
	entity.ProductStatusOut:      "Sin stock",
	entity.ProductStatusCritical: "Crítico",
	entity.ProductStatusLow:      "Bajo",
	entity.ProductStatusOK:       "OK",
}

// ── Generator ─────────────────────────────────────────────────────────────────

var _ inventory.StockReportGenerator = (*MarotoStockReportGenerator)(nil)

// MarotoStockReportGenerator implementa inventory.StockReportGenerator usando Maroto v2.
type MarotoStockReportGenerator struct {
	printer *message.Printer
}

// NewMarotoStockReportGenerator construye el generador. Los conteos se formatean en es-CO.
func NewMarotoStockReportGenerator() *MarotoStockReportGenerator {
	return &MarotoStockReportGenerator{printer: message.NewPrinter(language.MustParse("es-CO"))}
}

// GenerateStockReport genera el PDF y devuelve sus bytes.
func (g *MarotoStockReportGenerator) GenerateStockReport(ctx context.Context, report *inventory.StockReport) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	loc := report.Location
	if loc == nil {
		loc = time.UTC
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte de stock", true).
		WithAuthor(report.Title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(report.Title, report.GeneratedAt.In(loc)))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	if report.Summary != nil {
		m.AddRows(g.kpiRows(report.Summary)...)
		m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	}

	m.AddRows(sectionTitle("STOCK POR PRODUCTO"))
	m.AddRows(itemsHeaderRow())
	m.AddRows(itemRows(report.Items, loc)...)

	m.AddRows(line.NewRow(3))
	m.AddRows(sectionTitle(g.printer.Sprintf("ALERTAS ABIERTAS (%d)", len(report.Alerts))))
	if len(report.Alerts) == 0 {
		m.AddRows(row.New(6).Add(col.New(12).Add(
			text.New("No hay alertas abiertas.", props.Text{Size: 8, Color: colorGray, Top: 1}),
		)))
	}
	m.AddRows(alertRows(report.Alerts)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(title string, generatedAt time.Time) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(nonEmpty(title, "Clínica"), props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Reporte de stock por lotes", props.Text{
				Size: 9, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(generatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 9, Align: align.Right, Top: 7,
			}),
		),
	)
}

func (g *MarotoStockReportGenerator) kpiRows(s *inventory.StockSummary) []core.Row {
	kpi := func(label, value string, color *props.Color) core.Col {
		return col.New(2).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Align: align.Center, Top: 1}),
			text.New(value, props.Text{Style: fontstyle.Bold, Size: 11, Color: color, Align: align.Center, Top: 5}),
		)
	}
	return []core.Row{
		row.New(14).Add(
			kpi("Productos", g.printer.Sprintf("%d", s.TotalProducts), colorPrimary),
			kpi("Sin stock", g.printer.Sprintf("%d", s.ByStatus[entity.ProductStatusOut]), colorCritical),
			kpi("Críticos", g.printer.Sprintf("%d", s.ByStatus[entity.ProductStatusCritical]), colorCritical),
			kpi("Bajos", g.printer.Sprintf("%d", s.ByStatus[entity.ProductStatusLow]), colorWarning),
			kpi("Vencen este mes", g.printer.Sprintf("%d", s.ExpiringThisMonth), colorWarning),
			kpi("Vencidos con saldo", g.printer.Sprintf("%d", s.ExpiredWithStock), colorCritical),
		),
		row.New(7).Add(col.New(12).Add(
			text.New("Valor del stock disponible: $"+formatMoney(s.TotalValue), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 1, Right: 1,
			}),
		)),
	}
}

func sectionTitle(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{Style: fontstyle.Bold, Size: 9, Color: colorPrimary, Top: 1}),
	))
}

func itemsHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 4, align.Left),
		h("Estado", 2, align.Center),
		h("Disponible", 2, align.Right),
		h("Total", 1, align.Right),
		h("Mínimo", 1, align.Right),
		h("Próx. venc.", 2, align.Center),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

func itemRows(items []*entity.StockListItem, loc *time.Location) []core.Row {
	rows := make([]core.Row, 0, len(items))
	for _, it := range items {
		nearest := "—"
		if it.NearestExpiration != nil {
			nearest = it.NearestExpiration.In(loc).Format("02/01/2006")
			if it.DaysUntilExpiration != nil {
				nearest += fmt.Sprintf(" (%dd)", *it.DaysUntilExpiration)
			}
		}
		rows = append(rows, row.New(6).Add(
			col.New(4).Add(text.New(it.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(statusLabel(it.Status), props.Text{
				Size: 8, Align: align.Center, Top: 1, Style: fontstyle.Bold, Color: statusColor(it.Status),
			})),
			col.New(2).Add(text.New(formatQuantity(it.AvailableQuantity, it.Unit), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(formatQuantity(it.TotalQuantity, ""), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(formatQuantity(it.MinStock, ""), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(nearest, props.Text{Size: 8, Align: align.Center, Top: 1})),
		))
	}
	return rows
}

func alertRows(alerts []*entity.StockAlert) []core.Row {
	rows := make([]core.Row, 0, len(alerts))
	for _, a := range alerts {
		rows = append(rows, row.New(9).Add(
			col.New(2).Add(text.New(strings.ToUpper(a.Severity), props.Text{
				Style: fontstyle.Bold, Size: 7, Top: 1, Left: 1, Color: severityColor(a.Severity),
			})),
			col.New(10).Add(
				text.New(a.Title, props.Text{Style: fontstyle.Bold, Size: 8, Top: 1}),
				text.New(a.Message, props.Text{Size: 7, Top: 5, Color: colorGray}),
			),
		))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func statusLabel(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}

func statusColor(status string) *props.Color {
	switch status {
	case entity.ProductStatusOut, entity.ProductStatusCritical:
		return colorCritical
	case entity.ProductStatusLow:
		return colorWarning
	}
	return colorPrimary
}

func severityColor(severity string) *props.Color {
	switch severity {
	case entity.AlertSeverityCritical:
		return colorCritical
	case entity.AlertSeverityWarning:
		return colorWarning
	}
	return colorGray
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatQuantity cantidad sin ceros sobrantes, con separador de miles y unidad opcional.
// Ej: 1250.5 "ml" → "1.250,5 ml"
func formatQuantity(q decimal.Decimal, unit string) string {
	s := groupThousands(q.String())
	if unit == "" {
		return s
	}
	return s + " " + unit
}

// formatMoney redondea a pesos y agrupa miles. Ej: 1000000 → "1.000.000"
func formatMoney(v decimal.Decimal) string {
	return groupThousands(v.Round(0).String())
}

// groupThousands inserta puntos de miles y usa coma decimal sobre un número en formato "1234.5".
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := sign + string(buf)
	if hasFrac {
		out += "," + frac
	}
	return out
}
