package memory

import (
	"context"

	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo diario de movimientos en memoria (solo se agrega).
type StockMovementRepo struct {
	s  *Store
	tx bool
}

func (r *StockMovementRepo) Create(_ context.Context, m *entity.StockMovement) error {
	defer r.s.settled(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	cp.LocationID = copyString(m.LocationID)
	r.s.movements = append(r.s.movements, cp)
	return nil
}

// ListByStock más reciente primero; el orden de inserción desempata.
func (r *StockMovementRepo) ListByStock(_ context.Context, stockID string, limit, offset int) ([]*entity.StockMovement, int, error) {
	defer r.s.settled(r.tx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.StockMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if m.StockID != stockID {
			continue
		}
		m.LocationID = copyString(m.LocationID)
		out = append(out, &m)
	}
	return paginate(out, limit, offset), len(out), nil
}
