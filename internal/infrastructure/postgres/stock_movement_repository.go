package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo diario de movimientos sobre PostgreSQL (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador del diario. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta un movimiento.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements (id, stock_id, product_id, location_id, type, quantity, reason, reference, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.StockID, m.ProductID, m.LocationID, m.Type, m.Quantity,
		m.Reason, m.Reference, nullableID(m.CreatedBy), m.CreatedAt,
	)
	if err != nil {
		return mapError("insert stock movement", err)
	}
	return nil
}

// ListByStock movimientos de un registro, más reciente primero, con el total sin paginar.
func (r *StockMovementRepo) ListByStock(ctx context.Context, stockID string, limit, offset int) ([]*entity.StockMovement, int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM stock_movements WHERE stock_id = $1`, stockID).Scan(&total); err != nil {
		return nil, 0, mapError("count stock movements", err)
	}
	query := `
		SELECT id, stock_id, product_id, location_id, type, quantity, reason, reference, created_by, created_at
		FROM stock_movements WHERE stock_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, stockID, limit, offset)
	if err != nil {
		return nil, 0, mapError("list stock movements", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var createdBy *string
		if err := rows.Scan(&m.ID, &m.StockID, &m.ProductID, &m.LocationID, &m.Type, &m.Quantity,
			&m.Reason, &m.Reference, &createdBy, &m.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan stock movement: %w", err)
		}
		if createdBy != nil {
			m.CreatedBy = *createdBy
		}
		list = append(list, &m)
	}
	return list, total, rows.Err()
}

// nullableID vacío -> NULL para columnas UUID opcionales.
func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
