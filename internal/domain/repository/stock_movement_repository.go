package repository

import (
	"context"

	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
)

// StockMovementRepository diario de movimientos del libro (solo inserción y lectura).
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	ListByStock(ctx context.Context, stockID string, limit, offset int) ([]*entity.StockMovement, int, error)
}
