// Package memory implementa los puertos de persistencia en memoria. Se usa con
// STORAGE_DRIVER=memory para desarrollo local y como backend de las pruebas.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/jhoicas/dealer-stock-api/internal/application/inventory"
	"github.com/jhoicas/dealer-stock-api/internal/application/sellin"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner = (*Store)(nil)
	_ sellin.TxRunner    = (*Store)(nil)
)

// Store estado compartido por todos los repositorios en memoria.
// Las transacciones se serializan con txMu; si el callback falla se restaura la foto previa.
// Los repositorios obtenidos fuera de Run/RunSellIn esperan a que termine la transacción en
// curso, así que solo observan estado confirmado. No deben usarse dentro de un callback.
type Store struct {
	txMu sync.Mutex

	mu        sync.RWMutex
	products  map[string]entity.Product
	dealers   map[string]entity.Dealer
	users     map[string]entity.User
	stocks    map[string]entity.StockRecord
	movements []entity.StockMovement
	requests  map[string]entity.SellInRequest
	sequences map[int]int64
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{
		products:  make(map[string]entity.Product),
		dealers:   make(map[string]entity.Dealer),
		users:     make(map[string]entity.User),
		stocks:    make(map[string]entity.StockRecord),
		requests:  make(map[string]entity.SellInRequest),
		sequences: make(map[int]int64),
	}
}

// StockRecords repositorio del libro fuera de transacción.
func (s *Store) StockRecords() *StockRecordRepo { return &StockRecordRepo{s: s} }

// StockMovements repositorio del diario fuera de transacción.
func (s *Store) StockMovements() *StockMovementRepo { return &StockMovementRepo{s: s} }

// SellInRequests repositorio de solicitudes fuera de transacción.
func (s *Store) SellInRequests() *SellInRequestRepo { return &SellInRequestRepo{s: s} }

// Products repositorio de productos.
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Dealers repositorio de concesionarios.
func (s *Store) Dealers() *DealerRepo { return &DealerRepo{s: s} }

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{s: s} }

// Run ejecuta fn con los repositorios del libro como una unidad atómica.
func (s *Store) Run(ctx context.Context, fn func(
	stockRepo repository.StockRecordRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	return s.inTx(ctx, func() error {
		return fn(&StockRecordRepo{s: s, tx: true}, &StockMovementRepo{s: s, tx: true})
	})
}

// RunSellIn ejecuta fn con los repositorios de solicitudes y del libro como una unidad atómica.
func (s *Store) RunSellIn(ctx context.Context, fn func(
	reqRepo repository.SellInRequestRepository,
	stockRepo repository.StockRecordRepository,
	movRepo repository.StockMovementRepository,
) error) error {
	return s.inTx(ctx, func() error {
		return fn(&SellInRequestRepo{s: s, tx: true}, &StockRecordRepo{s: s, tx: true}, &StockMovementRepo{s: s, tx: true})
	})
}

func (s *Store) inTx(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// settled toma txMu para operaciones fuera de transacción; dentro de una ya está tomado.
func (s *Store) settled(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type snapshot struct {
	stocks    map[string]entity.StockRecord
	movements []entity.StockMovement
	requests  map[string]entity.SellInRequest
	sequences map[int]int64
}

// snapshot copia superficial: los valores guardados nunca se modifican en sitio, siempre se reemplazan.
func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		stocks:    make(map[string]entity.StockRecord, len(s.stocks)),
		movements: slices.Clone(s.movements),
		requests:  make(map[string]entity.SellInRequest, len(s.requests)),
		sequences: make(map[int]int64, len(s.sequences)),
	}
	for k, v := range s.stocks {
		snap.stocks[k] = v
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	for k, v := range s.sequences {
		snap.sequences[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stocks = snap.stocks
	s.movements = snap.movements
	s.requests = snap.requests
	s.sequences = snap.sequences
}

func copyString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
