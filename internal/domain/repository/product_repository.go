package repository

import (
	"context"

	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
)

// ProductRepository consulta de productos (colaborador externo, solo lectura).
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
}
