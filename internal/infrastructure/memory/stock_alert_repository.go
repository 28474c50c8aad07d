package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
)

// StockAlertRepository alertas en memoria.
type StockAlertRepository struct {
	s  *Store
	tx *tx
}

func (r *StockAlertRepository) run(fn func(t *tx) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	return r.s.autocommit(fn)
}

func (r *StockAlertRepository) view() *tx {
	if r.tx != nil {
		return r.tx
	}
	return newTx(r.s)
}

func (r *StockAlertRepository) Create(_ context.Context, alert *entity.StockAlert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	return r.run(func(t *tx) error {
		for _, a := range t.alertsView() {
			if a.IsOpen() && a.Key() == alert.Key() {
				return domain.ErrDuplicate
			}
		}
		c := *alert
		c.ResolvedAt = nil
		t.alertCreates = append(t.alertCreates, &c)
		return nil
	})
}

func (r *StockAlertRepository) ListOpenByProduct(_ context.Context, productID string) ([]*entity.StockAlert, error) {
	out := make([]*entity.StockAlert, 0)
	for _, a := range r.view().alertsView() {
		if a.ProductID == productID && a.IsOpen() {
			out = append(out, a)
		}
	}
	sortAlerts(out)
	return out, nil
}

func (r *StockAlertRepository) Resolve(_ context.Context, id string, at time.Time) error {
	return r.run(func(t *tx) error {
		if !t.alertExists(id) {
			return domain.NewNotFoundError("alerta", id)
		}
		t.alertResolves[id] = at
		return nil
	})
}

func (r *StockAlertRepository) UpdateDetails(_ context.Context, alert *entity.StockAlert) error {
	return r.run(func(t *tx) error {
		if !t.alertExists(alert.ID) {
			return domain.NewNotFoundError("alerta", alert.ID)
		}
		c := *alert
		t.alertUpdates[alert.ID] = &c
		return nil
	})
}

func (r *StockAlertRepository) List(_ context.Context, filter repository.AlertFilter) ([]*entity.StockAlert, error) {
	out := make([]*entity.StockAlert, 0)
	for _, a := range r.view().alertsView() {
		switch filter.Status {
		case repository.AlertStatusOpen, "":
			if !a.IsOpen() {
				continue
			}
		case repository.AlertStatusResolved:
			if a.IsOpen() {
				continue
			}
		}
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		if filter.Kind != "" && a.Kind != filter.Kind {
			continue
		}
		if filter.ProductID != "" && a.ProductID != filter.ProductID {
			continue
		}
		out = append(out, a)
	}
	sortAlerts(out)
	return out, nil
}

func (t *tx) alertExists(id string) bool {
	for _, a := range t.alertCreates {
		if a.ID == id {
			return true
		}
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	_, ok := t.s.alerts[id]
	return ok
}

// sortAlerts más recientes primero, desempate por id.
func sortAlerts(list []*entity.StockAlert) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
