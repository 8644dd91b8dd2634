package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/jhoicas/dealer-stock-api/internal/domain"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
)

var _ repository.SellInRequestRepository = (*SellInRequestRepo)(nil)

// SellInRequestRepo solicitudes sell-in en memoria.
type SellInRequestRepo struct {
	s  *Store
	tx bool
}

func (r *SellInRequestRepo) NextSequence(_ context.Context, year int) (int64, error) {
	defer r.s.settled(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.sequences[year]++
	return r.s.sequences[year], nil
}

func (r *SellInRequestRepo) Create(_ context.Context, req *entity.SellInRequest) error {
	defer r.s.settled(r.tx)()
	if err := req.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[req.ID]; ok {
		return domain.ErrDuplicate
	}
	for _, existing := range r.s.requests {
		if existing.RequestNumber == req.RequestNumber {
			return domain.ErrDuplicate
		}
	}
	req.Version = 1
	r.s.requests[req.ID] = cloneRequest(*req)
	return nil
}

func (r *SellInRequestRepo) GetByID(_ context.Context, id string) (*entity.SellInRequest, error) {
	defer r.s.settled(r.tx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	req, ok := r.s.requests[id]
	if !ok {
		return nil, nil
	}
	out := cloneRequest(req)
	return &out, nil
}

func (r *SellInRequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.SellInRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *SellInRequestRepo) GetByNumber(_ context.Context, number string) (*entity.SellInRequest, error) {
	defer r.s.settled(r.tx)()
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, req := range r.s.requests {
		if req.RequestNumber == number {
			out := cloneRequest(req)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *SellInRequestRepo) Update(_ context.Context, req *entity.SellInRequest) error {
	defer r.s.settled(r.tx)()
	if err := req.Validate(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.requests[req.ID]
	if !ok || current.Version != req.Version {
		return domain.ErrConcurrentUpdate
	}
	req.Version++
	next := cloneRequest(*req)
	next.RequestNumber = current.RequestNumber
	next.DealerID = current.DealerID
	next.RequestedBy = copyString(current.RequestedBy)
	next.CreatedAt = current.CreatedAt
	r.s.requests[req.ID] = next
	return nil
}

func (r *SellInRequestRepo) Delete(_ context.Context, id string) error {
	defer r.s.settled(r.tx)()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.requests[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.requests, id)
	return nil
}

func (r *SellInRequestRepo) List(_ context.Context, f repository.SellInFilter) ([]*entity.SellInRequest, int, error) {
	defer r.s.settled(r.tx)()
	r.s.mu.RLock()
	var matched []*entity.SellInRequest
	for _, req := range r.s.requests {
		if matchRequest(&req, f) {
			out := cloneRequest(req)
			matched = append(matched, &out)
		}
	}
	r.s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *entity.SellInRequest) int {
		var c int
		switch f.SortBy {
		case repository.SellInSortExpectedDeliveryDate:
			// NULLS LAST en ambos sentidos, como en PostgreSQL con NULLS LAST explícito.
			switch {
			case a.ExpectedDeliveryDate == nil && b.ExpectedDeliveryDate == nil:
			case a.ExpectedDeliveryDate == nil:
				return 1
			case b.ExpectedDeliveryDate == nil:
				return -1
			default:
				c = a.ExpectedDeliveryDate.Compare(*b.ExpectedDeliveryDate)
			}
		case repository.SellInSortCreatedAt:
			c = a.CreatedAt.Compare(b.CreatedAt)
		default:
			c = a.RequestDate.Compare(b.RequestDate)
		}
		if f.SortDesc {
			c = -c
		}
		if c == 0 {
			c = cmp.Compare(a.RequestNumber, b.RequestNumber)
		}
		return c
	})
	return paginate(matched, f.Limit, f.Offset), len(matched), nil
}

func matchRequest(req *entity.SellInRequest, f repository.SellInFilter) bool {
	if f.DealerID != "" && req.DealerID != f.DealerID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, req.Status) {
		return false
	}
	if !inRange(&req.RequestDate, f.RequestDateFrom, f.RequestDateTo) {
		return false
	}
	if f.ExpectedDeliveryFrom != nil || f.ExpectedDeliveryTo != nil {
		if req.ExpectedDeliveryDate == nil || !inRange(req.ExpectedDeliveryDate, f.ExpectedDeliveryFrom, f.ExpectedDeliveryTo) {
			return false
		}
	}
	return true
}

func inRange(t, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func cloneRequest(req entity.SellInRequest) entity.SellInRequest {
	req.ExpectedDeliveryDate = copyTime(req.ExpectedDeliveryDate)
	req.ActualDeliveryDate = copyTime(req.ActualDeliveryDate)
	req.ApprovedAt = copyTime(req.ApprovedAt)
	req.RequestedBy = copyString(req.RequestedBy)
	req.ApprovedBy = copyString(req.ApprovedBy)
	req.Items = slices.Clone(req.Items)
	return req
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
