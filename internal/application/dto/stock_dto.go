package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateStockRequest body para POST /api/inventory/stocks.
// LocationID nil = bodega central de la marca.
type CreateStockRequest struct {
	ProductID         string  `json:"product_id" validate:"required"`
	LocationID        *string `json:"location_id,omitempty"`
	TotalQuantity     int64   `json:"total_quantity" validate:"min=0"`
	ReservedQuantity  int64   `json:"reserved_quantity" validate:"min=0"`
	AvailableQuantity int64   `json:"available_quantity" validate:"min=0"`
	InTransitQuantity int64   `json:"in_transit_quantity" validate:"min=0"`
	Location          string  `json:"location"`
}

// UpdateStockRequest body para PUT /api/inventory/stocks/:id (reemplazo completo de cantidades).
type UpdateStockRequest struct {
	TotalQuantity     int64  `json:"total_quantity" validate:"min=0"`
	ReservedQuantity  int64  `json:"reserved_quantity" validate:"min=0"`
	AvailableQuantity int64  `json:"available_quantity" validate:"min=0"`
	InTransitQuantity int64  `json:"in_transit_quantity" validate:"min=0"`
	Location          string `json:"location"`
}

// AdjustStockRequest body para POST /:id/adjust. Delta con signo.
type AdjustStockRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason" validate:"required"`
}

// QuantityRequest body para reserve, release y resolve-in-transit.
type QuantityRequest struct {
	Quantity int64 `json:"quantity" validate:"min=1"`
}

// TransferStockRequest body para POST /:id/transfer. ToLocationID nil = bodega central.
type TransferStockRequest struct {
	ToLocationID *string `json:"to_location_id,omitempty"`
	Quantity     int64   `json:"quantity" validate:"min=1"`
}

// StockQuery filtros de GET /api/inventory/stocks.
type StockQuery struct {
	PageRequest
	SortRequest
	ProductID          string `query:"product_id"`
	LocationID         string `query:"location_id"`
	BrandWarehouseOnly bool   `query:"brand_warehouse"`
	MinAvailable       *int64 `query:"min_available"`
	MaxAvailable       *int64 `query:"max_available"`
	Keyword            string `query:"q"`
	LowStockOnly       bool   `query:"low_stock"`
	OutOfStockOnly     bool   `query:"out_of_stock"`
	Threshold          int64  `query:"threshold"`
}

// StockResponse salida de un registro del libro con los valores derivados.
type StockResponse struct {
	ID                string    `json:"id"`
	ProductID         string    `json:"product_id"`
	ProductName       string    `json:"product_name,omitempty"`
	LocationID        *string   `json:"location_id"`
	TotalQuantity     int64     `json:"total_quantity"`
	ReservedQuantity  int64     `json:"reserved_quantity"`
	AvailableQuantity int64     `json:"available_quantity"`
	InTransitQuantity int64     `json:"in_transit_quantity"`
	Location          string    `json:"location"`
	StockPercentage   float64   `json:"stock_percentage"`
	IsLowStock        bool      `json:"is_low_stock"`
	IsOutOfStock      bool      `json:"is_out_of_stock"`
	IsBrandWarehouse  bool      `json:"is_brand_warehouse"`
	Version           int64     `json:"version"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// StockListResponse lista paginada de registros.
type StockListResponse struct {
	Items []StockResponse `json:"items"`
	Page  PageResponse    `json:"page"`
}

// TransferResponse origen y destino después de un traslado.
type TransferResponse struct {
	Source      StockResponse `json:"source"`
	Destination StockResponse `json:"destination"`
}

// StockStatisticsResponse agregados del libro.
type StockStatisticsResponse struct {
	TotalRecords        int64           `json:"total_records"`
	TotalQuantity       int64           `json:"total_quantity"`
	TotalAvailable      int64           `json:"total_available"`
	TotalReserved       int64           `json:"total_reserved"`
	TotalInTransit      int64           `json:"total_in_transit"`
	LowStockCount       int64           `json:"low_stock_count"`
	OutOfStockCount     int64           `json:"out_of_stock_count"`
	BrandWarehouseCount int64           `json:"brand_warehouse_count"`
	AvailableValue      decimal.Decimal `json:"available_value"`
	LowStockThreshold   int64           `json:"low_stock_threshold"`
}

// StockMovementResponse entrada del diario de movimientos.
type StockMovementResponse struct {
	ID         string    `json:"id"`
	StockID    string    `json:"stock_id"`
	ProductID  string    `json:"product_id"`
	LocationID *string   `json:"location_id"`
	Type       string    `json:"type"`
	Quantity   int64     `json:"quantity"`
	Reason     string    `json:"reason,omitempty"`
	Reference  string    `json:"reference,omitempty"`
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// StockMovementListResponse lista paginada de movimientos.
type StockMovementListResponse struct {
	Items []StockMovementResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}
