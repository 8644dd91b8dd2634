package repository

import (
	"context"

	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Claves de ordenamiento para listados de stock.
const (
	StockSortProductName       = "product_name"
	StockSortAvailableQuantity = "available_quantity"
	StockSortUpdatedAt         = "updated_at"
)

// StockFilter criterios de búsqueda del libro de inventario. Campos vacíos/nil no filtran.
type StockFilter struct {
	ProductID          string
	LocationID         string
	BrandWarehouseOnly bool // LocationID IS NULL
	MinAvailable       *int64
	MaxAvailable       *int64
	Keyword            string // nombre del producto o etiqueta de ubicación
	AvailableBelow     *int64 // stock bajo: available < valor
	OutOfStockOnly     bool
	SortBy             string
	SortDesc           bool
	Limit              int
	Offset             int
}

// StockStatistics agregados del libro para el tablero.
type StockStatistics struct {
	TotalRecords        int64
	TotalQuantity       int64
	TotalAvailable      int64
	TotalReserved       int64
	TotalInTransit      int64
	LowStockCount       int64
	OutOfStockCount     int64
	BrandWarehouseCount int64
	AvailableValue      decimal.Decimal // Σ disponible × MSRP
}

// StockRecordRepository puerto de persistencia del libro de inventario (DIP).
// Las variantes ForUpdate bloquean la fila hasta el fin de la transacción.
// Update aplica bloqueo optimista sobre Version y la incrementa.
type StockRecordRepository interface {
	Create(ctx context.Context, stock *entity.StockRecord) error
	GetByID(ctx context.Context, id string) (*entity.StockRecord, error)
	GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error)
	GetByProductAndLocation(ctx context.Context, productID string, locationID *string) (*entity.StockRecord, error)
	GetByProductAndLocationForUpdate(ctx context.Context, productID string, locationID *string) (*entity.StockRecord, error)
	Update(ctx context.Context, stock *entity.StockRecord) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter StockFilter) ([]*entity.StockRecord, int, error)
	Statistics(ctx context.Context, lowStockThreshold int64) (*StockStatistics, error)
	// CommittedInTransit unidades en tránsito hacia (producto, ubicación) que solicitudes sell-in
	// en IN_TRANSIT aún deben entregar (aprobado − entregado).
	CommittedInTransit(ctx context.Context, productID string, locationID *string) (int64, error)
}
