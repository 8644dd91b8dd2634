package inventory

import (
	"context"

	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad del libro de inventario: toda verificación de invariantes y su escritura
// ocurren sobre filas bloqueadas y se confirman juntas.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRecordRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}
