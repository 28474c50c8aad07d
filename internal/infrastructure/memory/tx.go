package memory

import (
	"time"

	"github.com/jhoicas/clinica-estoque-api/internal/domain"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
)

// batchWork copia de trabajo de un lote dentro de la transacción.
type batchWork struct {
	batch       *entity.StockBatch
	baseVersion int64 // versión confirmada cuando se cargó
	created     bool
	dirty       bool
}

// tx cambios en búfer; nada toca el Store hasta commit.
type tx struct {
	s             *Store
	batches       map[string]*batchWork
	batchOrder    []string
	movements     []*entity.StockMovement
	alertCreates  []*entity.StockAlert
	alertResolves map[string]time.Time
	alertUpdates  map[string]*entity.StockAlert
}

func newTx(s *Store) *tx {
	return &tx{
		s:             s,
		batches:       make(map[string]*batchWork),
		alertResolves: make(map[string]time.Time),
		alertUpdates:  make(map[string]*entity.StockAlert),
	}
}

// loadBatch devuelve la copia de trabajo, cargándola del estado confirmado si hace falta.
// nil si el lote no existe.
func (t *tx) loadBatch(id string) *batchWork {
	if w, ok := t.batches[id]; ok {
		return w
	}
	t.s.mu.RLock()
	stored, ok := t.s.batches[id]
	var w *batchWork
	if ok {
		w = &batchWork{batch: stored.Clone(), baseVersion: stored.Version}
	}
	t.s.mu.RUnlock()
	if w == nil {
		return nil
	}
	t.batches[id] = w
	t.batchOrder = append(t.batchOrder, id)
	return w
}

// batchesView estado confirmado con la transacción superpuesta.
func (t *tx) batchesView(filter func(*entity.StockBatch) bool) []*entity.StockBatch {
	t.s.mu.RLock()
	out := make([]*entity.StockBatch, 0)
	for id, b := range t.s.batches {
		if w, ok := t.batches[id]; ok {
			b = w.batch
		}
		if filter(b) {
			out = append(out, b.Clone())
		}
	}
	t.s.mu.RUnlock()
	for _, id := range t.batchOrder {
		w := t.batches[id]
		if w.created && filter(w.batch) {
			out = append(out, w.batch.Clone())
		}
	}
	return out
}

func (t *tx) alertsView() []*entity.StockAlert {
	t.s.mu.RLock()
	out := make([]*entity.StockAlert, 0, len(t.s.alerts)+len(t.alertCreates))
	for id, a := range t.s.alerts {
		c := *a
		if u, ok := t.alertUpdates[id]; ok {
			c.Severity, c.Title, c.Message, c.UpdatedAt = u.Severity, u.Title, u.Message, u.UpdatedAt
		}
		if at, ok := t.alertResolves[id]; ok {
			resolved := at
			c.ResolvedAt = &resolved
		}
		out = append(out, &c)
	}
	t.s.mu.RUnlock()
	for _, a := range t.alertCreates {
		c := *a
		if u, ok := t.alertUpdates[a.ID]; ok {
			c.Severity, c.Title, c.Message, c.UpdatedAt = u.Severity, u.Title, u.Message, u.UpdatedAt
		}
		if at, ok := t.alertResolves[a.ID]; ok {
			resolved := at
			c.ResolvedAt = &resolved
		}
		out = append(out, &c)
	}
	return out
}

func (t *tx) movementsView(filter func(*entity.StockMovement) bool) []*entity.StockMovement {
	t.s.mu.RLock()
	out := make([]*entity.StockMovement, 0)
	for _, m := range t.s.movements {
		if filter(m) {
			c := *m
			out = append(out, &c)
		}
	}
	t.s.mu.RUnlock()
	for _, m := range t.movements {
		if filter(m) {
			c := *m
			out = append(out, &c)
		}
	}
	return out
}

// commit valida contra el estado confirmado y aplica todo o nada.
func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range t.batchOrder {
		w := t.batches[id]
		if w.created {
			if s.activeBatchNumberTaken(w.batch.ProductID, w.batch.BatchNumber) {
				return domain.ErrDuplicate
			}
			if _, exists := s.batches[id]; exists {
				return domain.ErrDuplicate
			}
			continue
		}
		if !w.dirty {
			continue
		}
		stored, ok := s.batches[id]
		if !ok || stored.Version != w.baseVersion {
			return domain.ErrConcurrencyConflict
		}
	}
	for _, m := range t.movements {
		if m.Type == entity.MovementTypeCancellation && s.cancellationExists(m.RelatedMovementID) {
			return domain.ErrConcurrencyConflict
		}
	}
	for _, a := range t.alertCreates {
		if _, resolvedHere := t.alertResolves[a.ID]; resolvedHere {
			continue
		}
		if s.openAlertTaken(a.Key(), t.alertResolves) {
			return domain.ErrDuplicate
		}
	}

	for _, id := range t.batchOrder {
		w := t.batches[id]
		if w.created || w.dirty {
			s.batches[id] = w.batch.Clone()
		}
	}
	for _, m := range t.movements {
		s.seq++
		m.Seq = s.seq
		c := *m
		s.movements = append(s.movements, &c)
	}
	for _, a := range t.alertCreates {
		c := *a
		s.alerts[a.ID] = &c
	}
	for id, u := range t.alertUpdates {
		if a, ok := s.alerts[id]; ok {
			a.Severity, a.Title, a.Message, a.UpdatedAt = u.Severity, u.Title, u.Message, u.UpdatedAt
		}
	}
	for id, at := range t.alertResolves {
		if a, ok := s.alerts[id]; ok && a.ResolvedAt == nil {
			resolved := at
			a.ResolvedAt = &resolved
			a.UpdatedAt = at
		}
	}
	return nil
}

// Las siguientes se llaman con s.mu tomado.

func (s *Store) activeBatchNumberTaken(productID, batchNumber string) bool {
	for _, b := range s.batches {
		if b.ProductID == productID && b.BatchNumber == batchNumber && !b.IsDepleted() {
			return true
		}
	}
	return false
}

func (s *Store) cancellationExists(relatedID string) bool {
	for _, m := range s.movements {
		if m.Type == entity.MovementTypeCancellation && m.RelatedMovementID == relatedID {
			return true
		}
	}
	return false
}

func (s *Store) openAlertTaken(key entity.AlertKey, resolving map[string]time.Time) bool {
	for id, a := range s.alerts {
		if _, ok := resolving[id]; ok {
			continue
		}
		if a.IsOpen() && a.Key() == key {
			return true
		}
	}
	return false
}
