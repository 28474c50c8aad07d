// Package memory implementa los repositorios de stock en memoria, con transacciones
// en búfer que validan versiones de lote al confirmar. Lo usan los tests y STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/clinica-estoque-api/internal/domain/entity"
	"github.com/jhoicas/clinica-estoque-api/internal/domain/repository"
)

// Store estado confirmado. Toda escritura pasa por commit bajo mu.
type Store struct {
	mu        sync.RWMutex
	products  map[string]*entity.Product
	batches   map[string]*entity.StockBatch
	movements []*entity.StockMovement // orden de inserción (seq)
	alerts    map[string]*entity.StockAlert
	seq       int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		batches:  make(map[string]*entity.StockBatch),
		alerts:   make(map[string]*entity.StockAlert),
	}
}

// Products repositorio de catálogo.
func (s *Store) Products() repository.ProductRepository { return &ProductRepository{s: s} }

// Batches repositorio de lotes fuera de transacción (cada escritura se confirma sola).
func (s *Store) Batches() repository.StockBatchRepository { return &StockBatchRepository{s: s} }

// Movements repositorio del libro fuera de transacción.
func (s *Store) Movements() repository.StockMovementRepository {
	return &StockMovementRepository{s: s}
}

// Alerts repositorio de alertas fuera de transacción.
func (s *Store) Alerts() repository.StockAlertRepository { return &StockAlertRepository{s: s} }

// TxRunner implementa inventory.TxRunner sobre el almacén.
type TxRunner struct {
	s *Store
}

// NewTxRunner construye el runner.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{s: s}
}

// Run ejecuta fn con repositorios atados a una transacción en búfer. Si fn falla o el
// contexto se cancela antes de confirmar, nada se aplica.
func (r *TxRunner) Run(ctx context.Context, fn func(
	batchRepo repository.StockBatchRepository,
	movRepo repository.StockMovementRepository,
	alertRepo repository.StockAlertRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := newTx(r.s)
	if err := fn(
		&StockBatchRepository{s: r.s, tx: tx},
		&StockMovementRepository{s: r.s, tx: tx},
		&StockAlertRepository{s: r.s, tx: tx},
	); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return tx.commit()
}

// autocommit ejecuta una escritura suelta como transacción de una sola operación.
func (s *Store) autocommit(fn func(tx *tx) error) error {
	t := newTx(s)
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}
