package repository

import (
	"context"

	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
)

// DealerRepository consulta de concesionarios (colaborador externo, solo lectura).
type DealerRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Dealer, error)
}
