package inventory

import (
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

// DesiredAlerts calcula el conjunto de alertas que deberían estar abiertas para el producto.
// batches es el historial completo de lotes del producto (incluye agotados).
// Las alertas devueltas no tienen ID ni fechas; las completa la reconciliación.
// Título y mensaje solo dependen del catálogo y del lote, no del saldo ni del día: una alerta
// abierta no se reescribe con cada consumo.
func (e Evaluator) DesiredAlerts(product *entity.Product, batches []*entity.StockBatch, now time.Time) []*entity.StockAlert {
	item := e.Summarize(product, batches, now)
	var desired []*entity.StockAlert

	switch item.Status {
	case entity.ProductStatusOut:
		if product.MinStock.IsPositive() || len(batches) > 0 {
			desired = append(desired, &entity.StockAlert{
				ProductID: product.ID,
				Kind:      entity.AlertKindOutOfStock,
				Severity:  entity.AlertSeverityCritical,
				Title:     "Sin stock: " + product.Name,
				Message: fmt.Sprintf("%s no tiene stock disponible (mínimo %s %s)",
					product.Name, product.MinStock.String(), product.Unit),
			})
		}
	case entity.ProductStatusCritical, entity.ProductStatusLow:
		severity := entity.AlertSeverityWarning
		title := "Stock bajo: " + product.Name
		if item.Status == entity.ProductStatusCritical {
			severity = entity.AlertSeverityCritical
			title = "Stock crítico: " + product.Name
		}
		desired = append(desired, &entity.StockAlert{
			ProductID: product.ID,
			Kind:      entity.AlertKindLowStock,
			Severity:  severity,
			Title:     title,
			Message: fmt.Sprintf("%s está por debajo del mínimo de %s %s",
				product.Name, product.MinStock.String(), product.Unit),
		})
	}

	for _, b := range batches {
		if b.IsDepleted() {
			continue
		}
		days := e.DaysUntilExpiration(b.ExpirationDate, now)
		kind, severity, ok := e.ExpirationAlert(days)
		if !ok {
			continue
		}
		alert := &entity.StockAlert{
			ProductID: product.ID,
			BatchID:   b.ID,
			Kind:      kind,
			Severity:  severity,
		}
		exp := b.ExpirationDate.In(e.loc()).Format("2006-01-02")
		if kind == entity.AlertKindExpired {
			alert.Title = "Lote vencido: " + product.Name
			alert.Message = fmt.Sprintf("Lote %s de %s venció el %s y aún tiene saldo",
				b.BatchNumber, product.Name, exp)
		} else {
			alert.Title = "Lote próximo a vencer: " + product.Name
			alert.Message = fmt.Sprintf("Lote %s de %s vence el %s", b.BatchNumber, product.Name, exp)
		}
		desired = append(desired, alert)
	}
	return desired
}

// AlertPlan resultado de reconciliar alertas deseadas contra abiertas.
type AlertPlan struct {
	Create  []*entity.StockAlert // deseadas sin alerta abierta
	Resolve []*entity.StockAlert // abiertas que ya no se desean
	Refresh []*entity.StockAlert // abiertas que se mantienen pero cambiaron severidad o datos del catálogo
	Keep    []*entity.StockAlert // abiertas sin cambios
}

// IsEmpty indica si no hay nada que escribir.
func (p AlertPlan) IsEmpty() bool {
	return len(p.Create) == 0 && len(p.Resolve) == 0 && len(p.Refresh) == 0
}

// ReconcileAlerts compara por clave (producto, lote, tipo). Las alertas presentes en ambos lados
// conservan id y createdAt; si cambió la severidad o el texto van a Refresh con esos campos ya
// copiados. Abiertas duplicadas con la misma clave se resuelven dejando la más antigua.
func ReconcileAlerts(desired, open []*entity.StockAlert) AlertPlan {
	var plan AlertPlan

	openByKey := make(map[entity.AlertKey]*entity.StockAlert, len(open))
	sortedOpen := append([]*entity.StockAlert(nil), open...)
	sort.SliceStable(sortedOpen, func(i, j int) bool {
		return sortedOpen[i].CreatedAt.Before(sortedOpen[j].CreatedAt)
	})
	for _, a := range sortedOpen {
		if _, dup := openByKey[a.Key()]; dup {
			plan.Resolve = append(plan.Resolve, a)
			continue
		}
		openByKey[a.Key()] = a
	}

	seen := make(map[entity.AlertKey]bool, len(desired))
	for _, d := range desired {
		key := d.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		current, ok := openByKey[key]
		if !ok {
			plan.Create = append(plan.Create, d)
			continue
		}
		if current.Severity != d.Severity || current.Title != d.Title || current.Message != d.Message {
			refreshed := *current
			refreshed.Severity = d.Severity
			refreshed.Title = d.Title
			refreshed.Message = d.Message
			plan.Refresh = append(plan.Refresh, &refreshed)
			continue
		}
		plan.Keep = append(plan.Keep, current)
	}

	for key, a := range openByKey {
		if !seen[key] {
			plan.Resolve = append(plan.Resolve, a)
		}
	}
	sort.SliceStable(plan.Resolve, func(i, j int) bool { return plan.Resolve[i].ID < plan.Resolve[j].ID })
	return plan
}
