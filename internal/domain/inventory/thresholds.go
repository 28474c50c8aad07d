package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Thresholds umbrales de clasificación de stock y vencimiento.
type Thresholds struct {
	ExpiringCriticalDays int             // días <= este valor -> crítico
	ExpiringWarningDays  int             // días <= este valor -> advertencia
	CriticalRatio        decimal.Decimal // fracción de minStock que marca "critical"
}

// DefaultThresholds 15 / 30 días y 50% del mínimo.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ExpiringCriticalDays: 15,
		ExpiringWarningDays:  30,
		CriticalRatio:        decimal.NewFromFloat(0.5),
	}
}

// lowBatchRatio un lote con menos de esta fracción de su cantidad inicial se marca "low".
var lowBatchRatio = decimal.NewFromFloat(0.2)

// Evaluator concentra toda la derivación de estado y alertas de stock.
type Evaluator struct {
	Thresholds Thresholds
	Location   *time.Location // zona horaria de la clínica para contar días calendario
}

// NewEvaluator construye el evaluador. loc nil = UTC.
func NewEvaluator(th Thresholds, loc *time.Location) Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	return Evaluator{Thresholds: th, Location: loc}
}
