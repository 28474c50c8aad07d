package inventory

import (
	"time"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

// DaysUntilExpiration cuenta días calendario entre hoy y la fecha de vencimiento en la zona
// de la clínica. Un lote que vence hoy da 0, uno que venció ayer da -1.
func (e Evaluator) DaysUntilExpiration(expiration, now time.Time) int {
	n := now.In(e.loc())
	x := expiration.In(e.loc())
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	exp := time.Date(x.Year(), x.Month(), x.Day(), 0, 0, 0, 0, time.UTC)
	return int(exp.Sub(today).Hours() / 24)
}

// IsExpired un lote está vencido desde el día de su vencimiento.
func (e Evaluator) IsExpired(b *entity.StockBatch, now time.Time) bool {
	return e.DaysUntilExpiration(b.ExpirationDate, now) <= 0
}

// IsAllocatable lote con saldo y no vencido.
func (e Evaluator) IsAllocatable(b *entity.StockBatch, now time.Time) bool {
	return !b.IsDepleted() && !e.IsExpired(b, now)
}

// ExpirationAlert clasifica los días restantes. ok=false si no corresponde alerta.
func (e Evaluator) ExpirationAlert(days int) (kind, severity string, ok bool) {
	switch {
	case days <= 0:
		return entity.AlertKindExpired, entity.AlertSeverityCritical, true
	case days <= e.Thresholds.ExpiringCriticalDays:
		return entity.AlertKindExpiringSoon, entity.AlertSeverityCritical, true
	case days <= e.Thresholds.ExpiringWarningDays:
		return entity.AlertKindExpiringSoon, entity.AlertSeverityWarning, true
	}
	return "", "", false
}

// BatchStatus deriva el estado del lote (primera coincidencia gana).
func (e Evaluator) BatchStatus(b *entity.StockBatch, now time.Time) string {
	if b.IsDepleted() {
		return entity.BatchStatusDepleted
	}
	days := e.DaysUntilExpiration(b.ExpirationDate, now)
	if days <= 0 {
		return entity.BatchStatusExpired
	}
	if days <= e.Thresholds.ExpiringWarningDays {
		return entity.BatchStatusExpiring
	}
	if b.CurrentQuantity.LessThan(b.InitialQuantity.Mul(lowBatchRatio)) {
		return entity.BatchStatusLow
	}
	return entity.BatchStatusActive
}

// StartOfDay medianoche de now en la zona de la clínica.
func (e Evaluator) StartOfDay(now time.Time) time.Time {
	n := now.In(e.loc())
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, e.loc())
}

func (e Evaluator) loc() *time.Location {
	if e.Location == nil {
		return time.UTC
	}
	return e.Location
}
