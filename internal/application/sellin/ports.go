package sellin

import (
	"context"

	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con los repositorios de solicitudes y del libro de inventario,
// de modo que el cambio de estado y el movimiento de stock se confirman o revierten juntos.
type TxRunner interface {
	RunSellIn(ctx context.Context, fn func(
		reqRepo repository.SellInRequestRepository,
		stockRepo repository.StockRecordRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// StockLedger contrato de mutación del libro que necesita el flujo (lo implementa *inventory.StockUseCase).
type StockLedger interface {
	TransferProductInTx(
		ctx context.Context,
		stockRepo repository.StockRecordRepository,
		movRepo repository.StockMovementRepository,
		productID string,
		fromLocationID, toLocationID *string,
		quantity int64,
		reference, userID string,
	) error
	ResolveInTransitInTx(
		ctx context.Context,
		stockRepo repository.StockRecordRepository,
		movRepo repository.StockMovementRepository,
		productID string,
		locationID *string,
		quantity int64,
		reference, userID string,
	) error
}
