package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/clinica-estoque-api/internal/application/inventory"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

func TestGroupThousands(t *testing.T) {
	cases := map[string]string{
		"0":         "0",
		"999":       "999",
		"25000":     "25.000",
		"1000000":   "1.000.000",
		"1250.5":    "1.250,5",
		"-12345.25": "-12.345,25",
	}
	for in, want := range cases {
		assert.Equal(t, want, groupThousands(in), in)
	}
	assert.Equal(t, "1.250,5 ml", formatQuantity(decimal.RequireFromString("1250.50"), "ml"))
	assert.Equal(t, "18.751", formatMoney(decimal.RequireFromString("18750.6")))
}

func TestGenerateStockReport_DevuelvePDF(t *testing.T) {
	days := 4
	exp := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	report := &inventory.StockReport{
		Title:       "Clínica Norte",
		GeneratedAt: time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
		Summary: &inventory.StockSummary{
			TotalProducts:     2,
			ByStatus:          map[string]int{entity.ProductStatusLow: 1, entity.ProductStatusOK: 1},
			TotalValue:        decimal.RequireFromString("152300.5"),
			ExpiringThisMonth: 1,
		},
		Items: []*entity.StockListItem{
			{
				ProductName: "Insulina glargina", Unit: "ml", Status: entity.ProductStatusLow,
				AvailableQuantity: decimal.NewFromInt(8), TotalQuantity: decimal.NewFromInt(8), MinStock: decimal.NewFromInt(10),
				NearestExpiration: &exp, DaysUntilExpiration: &days,
			},
			{ProductName: "Gasas", Unit: "un", Status: entity.ProductStatusOK, AvailableQuantity: decimal.NewFromInt(300)},
		},
		Alerts: []*entity.StockAlert{
			{Severity: entity.AlertSeverityWarning, Title: "Stock bajo: Insulina glargina", Message: "disponible 8 ml (mínimo 10)"},
		},
	}

	out, err := NewMarotoStockReportGenerator().GenerateStockReport(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "no parece un PDF")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMarotoStockReportGenerator().GenerateStockReport(ctx, report)
	assert.ErrorIs(t, err, context.Canceled)
}
