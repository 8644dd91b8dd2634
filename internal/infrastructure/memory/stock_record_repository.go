package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/dealer-stock-api/internal/domain"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
	"github.com/jhoicas/dealer-stock-api/pkg/textnorm"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

// StockRecordRepo libro de inventario en memoria. Devuelve copias; nunca punteros al estado interno.
type StockRecordRepo struct {
	s  *Store
	tx bool
}

func (r *StockRecordRepo) Create(_ context.Context, stock *entity.StockRecord) error {
	defer r.s.settled(r.tx)()
	if err := stock.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.stocks[stock.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range r.s.stocks {
		if existing.ProductID == stock.ProductID && existing.SameLocation(stock.LocationID) {
			return domain.ErrDuplicate
		}
	}
	stock.Version = 1
	r.s.stocks[stock.ID] = cloneStock(*stock)
	return nil
}

func (r *StockRecordRepo) GetByID(_ context.Context, id string) (*entity.StockRecord, error) {
	defer r.s.settled(r.tx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st, ok := r.s.stocks[id]
	if !ok {
		return nil, nil
	}
	return r.read(st), nil
}

// GetForUpdate equivale a GetByID: la transacción ya tiene el almacén en exclusiva.
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.GetByID(ctx, id)
}

func (r *StockRecordRepo) GetByProductAndLocation(_ context.Context, productID string, locationID *string) (*entity.StockRecord, error) {
	defer r.s.settled(r.tx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, st := range r.s.stocks {
		if st.ProductID == productID && st.SameLocation(locationID) {
			return r.read(st), nil
		}
	}
	return nil, nil
}

func (r *StockRecordRepo) GetByProductAndLocationForUpdate(ctx context.Context, productID string, locationID *string) (*entity.StockRecord, error) {
	return r.GetByProductAndLocation(ctx, productID, locationID)
}

// Update aplica bloqueo optimista sobre Version, igual que el adaptador PostgreSQL.
func (r *StockRecordRepo) Update(_ context.Context, stock *entity.StockRecord) error {
	defer r.s.settled(r.tx)()
	if err := stock.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.stocks[stock.ID]
	if !ok || current.Version != stock.Version {
		return domain.ErrConcurrentUpdate
	}
	stock.Version++
	next := cloneStock(*stock)
	next.ProductID = current.ProductID
	next.LocationID = copyString(current.LocationID)
	next.CreatedAt = current.CreatedAt
	r.s.stocks[stock.ID] = next
	return nil
}

func (r *StockRecordRepo) Delete(_ context.Context, id string) error {
	defer r.s.settled(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.stocks[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.stocks, id)
	// ON DELETE CASCADE del diario.
	kept := r.s.movements[:0:0]
	for _, m := range r.s.movements {
		if m.StockID != id {
			kept = append(kept, m)
		}
	}
	r.s.movements = kept
	return nil
}

func (r *StockRecordRepo) List(_ context.Context, f repository.StockFilter) ([]*entity.StockRecord, int, error) {
	defer r.s.settled(r.tx)()
	r.s.mu.RLock()
	var matched []*entity.StockRecord
	for _, st := range r.s.stocks {
		rec := r.read(st)
		if matchStock(rec, f) {
			matched = append(matched, rec)
		}
	}
	r.s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *entity.StockRecord) int {
		var c int
		switch f.SortBy {
		case repository.StockSortAvailableQuantity:
			c = cmp.Compare(a.AvailableQuantity, b.AvailableQuantity)
		case repository.StockSortUpdatedAt:
			c = a.UpdatedAt.Compare(b.UpdatedAt)
		default:
			c = cmp.Compare(a.ProductName, b.ProductName)
		}
		if f.SortDesc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		return c
	})
	return paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func (r *StockRecordRepo) Statistics(_ context.Context, lowStockThreshold int64) (*repository.StockStatistics, error) {
	defer r.s.settled(r.tx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	st := &repository.StockStatistics{AvailableValue: decimal.Zero}
	for _, rec := range r.s.stocks {
		st.TotalRecords++
		st.TotalQuantity += rec.TotalQuantity
		st.TotalAvailable += rec.AvailableQuantity
		st.TotalReserved += rec.ReservedQuantity
		st.TotalInTransit += rec.InTransitQuantity
		if rec.AvailableQuantity < lowStockThreshold {
			st.LowStockCount++
		}
		if rec.AvailableQuantity == 0 {
			st.OutOfStockCount++
		}
		if rec.LocationID == nil {
			st.BrandWarehouseCount++
		}
		if p, ok := r.s.products[rec.ProductID]; ok {
			st.AvailableValue = st.AvailableValue.Add(p.MSRP.Mul(decimal.NewFromInt(rec.AvailableQuantity)))
		}
	}
	return st, nil
}

func (r *StockRecordRepo) CommittedInTransit(_ context.Context, productID string, locationID *string) (int64, error) {
	defer r.s.settled(r.tx)()
	if locationID == nil {
		return 0, nil
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var committed int64
	for _, req := range r.s.requests {
		if req.Status != entity.SellInStatusInTransit || req.DealerID != *locationID {
			continue
		}
		for _, it := range req.Items {
			if it.ProductID == productID {
				committed += it.ApprovedQuantity - it.DeliveredQuantity
			}
		}
	}
	return committed, nil
}

// read copia el registro y completa ProductName como lo haría el join. Requiere mu tomado.
func (r *StockRecordRepo) read(st entity.StockRecord) *entity.StockRecord {
	out := cloneStock(st)
	if p, ok := r.s.products[st.ProductID]; ok {
		out.ProductName = p.Name
	}
	return &out
}

func matchStock(s *entity.StockRecord, f repository.StockFilter) bool {
	if f.ProductID != "" && s.ProductID != f.ProductID {
		return false
	}
	if f.BrandWarehouseOnly {
		if s.LocationID != nil {
			return false
		}
	} else if f.LocationID != "" && (s.LocationID == nil || *s.LocationID != f.LocationID) {
		return false
	}
	if f.MinAvailable != nil && s.AvailableQuantity < *f.MinAvailable {
		return false
	}
	if f.MaxAvailable != nil && s.AvailableQuantity > *f.MaxAvailable {
		return false
	}
	if f.AvailableBelow != nil && s.AvailableQuantity >= *f.AvailableBelow {
		return false
	}
	if f.OutOfStockOnly && s.AvailableQuantity != 0 {
		return false
	}
	if f.Keyword != "" &&
		!strings.Contains(textnorm.Fold(s.ProductName), f.Keyword) &&
		!strings.Contains(textnorm.Fold(s.Location), f.Keyword) {
		return false
	}
	return true
}

func cloneStock(s entity.StockRecord) entity.StockRecord {
	s.LocationID = copyString(s.LocationID)
	s.ProductName = ""
	return s
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
