package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
)

var _ repository.DealerRepository = (*DealerRepo)(nil)

// DealerRepo consulta de concesionarios sobre PostgreSQL.
type DealerRepo struct {
	q Querier
}

// NewDealerRepository construye el adaptador de concesionarios. Pasar pool o tx (Querier).
func NewDealerRepository(q Querier) *DealerRepo {
	return &DealerRepo{q: q}
}

// Create persiste un concesionario (idempotente por ID). Lo usa el seed.
func (r *DealerRepo) Create(ctx context.Context, d *entity.Dealer) error {
	query := `
		INSERT INTO dealers (id, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, address = EXCLUDED.address, updated_at = EXCLUDED.updated_at`
	if _, err := r.q.Exec(ctx, query, d.ID, d.Name, d.Address, d.CreatedAt, d.UpdatedAt); err != nil {
		return fmt.Errorf("insert dealer: %w", err)
	}
	return nil
}

// GetByID obtiene un concesionario por ID; nil si no existe.
func (r *DealerRepo) GetByID(ctx context.Context, id string) (*entity.Dealer, error) {
	query := `SELECT id, name, address, created_at, updated_at FROM dealers WHERE id = $1`
	var d entity.Dealer
	err := r.q.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.Address, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError("get dealer", err)
	}
	return &d, nil
}
