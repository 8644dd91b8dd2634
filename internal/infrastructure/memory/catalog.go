package memory

import (
	"context"
	"strings"

	"github.com/jhoicas/dealer-stock-api/internal/domain"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
)

var (
	_ repository.ProductRepository = (*ProductRepo)(nil)
	_ repository.DealerRepository  = (*DealerRepo)(nil)
	_ repository.UserRepository    = (*UserRepo)(nil)
)

// ProductRepo catálogo de productos en memoria.
type ProductRepo struct{ s *Store }

// Create registra o reemplaza un producto.
func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// DealerRepo concesionarios en memoria.
type DealerRepo struct{ s *Store }

// Create registra o reemplaza un concesionario.
func (r *DealerRepo) Create(_ context.Context, d *entity.Dealer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.dealers[d.ID] = *d
	return nil
}

func (r *DealerRepo) GetByID(_ context.Context, id string) (*entity.Dealer, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	d, ok := r.s.dealers[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

// UserRepo usuarios en memoria.
type UserRepo struct{ s *Store }

// Create registra un usuario; ErrDuplicate si el email ya existe.
func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return domain.ErrDuplicate
		}
	}
	cp := *u
	cp.DealerID = copyString(u.DealerID)
	r.s.users[u.ID] = cp
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	u.DealerID = copyString(u.DealerID)
	return &u, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			u.DealerID = copyString(u.DealerID)
			return &u, nil
		}
	}
	return nil, nil
}
