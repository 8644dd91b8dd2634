package entity

import (
	"fmt"
	"time"

	"github.com/jhoicas/dealer-stock-api/internal/domain"
)

// DefaultLowStockThreshold umbral por defecto para considerar un registro en stock bajo.
const DefaultLowStockThreshold = 5

// StockRecord representa el stock de un producto en una ubicación (fila del libro de inventario).
// LocationID nil = bodega central de la marca; en otro caso es el ID del concesionario.
// Invariante: TotalQuantity == ReservedQuantity + AvailableQuantity + InTransitQuantity.
type StockRecord struct {
	ID                string
	ProductID         string
	LocationID        *string
	TotalQuantity     int64
	ReservedQuantity  int64
	AvailableQuantity int64
	InTransitQuantity int64
	Location          string // etiqueta libre de estante/bin
	Version           int64  // bloqueo optimista
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// ProductName se llena en lecturas (join con products); no se persiste.
	ProductName string
}

// Validate verifica no negatividad y la invariante de suma.
func (s *StockRecord) Validate() error {
	if s.TotalQuantity < 0 || s.ReservedQuantity < 0 || s.AvailableQuantity < 0 || s.InTransitQuantity < 0 {
		return fmt.Errorf("las cantidades no pueden ser negativas: %w", domain.ErrInvalidInput)
	}
	if s.TotalQuantity != s.ReservedQuantity+s.AvailableQuantity+s.InTransitQuantity {
		return domain.ErrStockInvariant
	}
	return nil
}

// IsBrandWarehouse indica si el registro pertenece a la bodega central.
func (s *StockRecord) IsBrandWarehouse() bool {
	return s.LocationID == nil
}

// SameLocation compara la ubicación del registro con otra (nil = bodega central).
func (s *StockRecord) SameLocation(locationID *string) bool {
	if s.LocationID == nil || locationID == nil {
		return s.LocationID == nil && locationID == nil
	}
	return *s.LocationID == *locationID
}

// StockPercentage disponible / total * 100; 0 si total es 0.
func (s *StockRecord) StockPercentage() float64 {
	if s.TotalQuantity == 0 {
		return 0
	}
	return float64(s.AvailableQuantity) / float64(s.TotalQuantity) * 100
}

// IsLowStock disponible < umbral.
func (s *StockRecord) IsLowStock(threshold int64) bool {
	return s.AvailableQuantity < threshold
}

// IsOutOfStock disponible == 0.
func (s *StockRecord) IsOutOfStock() bool {
	return s.AvailableQuantity == 0
}

// Adjust suma delta (con signo) a total y disponible. Corrección de inventario.
func (s *StockRecord) Adjust(delta int64) error {
	if delta == 0 {
		return fmt.Errorf("delta no puede ser cero: %w", domain.ErrInvalidInput)
	}
	if s.TotalQuantity+delta < 0 || s.AvailableQuantity+delta < 0 {
		return domain.ErrInsufficientStock
	}
	s.TotalQuantity += delta
	s.AvailableQuantity += delta
	return nil
}

// Reserve mueve quantity de disponible a reservado.
func (s *StockRecord) Reserve(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("cantidad debe ser positiva: %w", domain.ErrInvalidInput)
	}
	if quantity > s.AvailableQuantity {
		return domain.ErrInsufficientStock
	}
	s.AvailableQuantity -= quantity
	s.ReservedQuantity += quantity
	return nil
}

// Release mueve quantity de reservado a disponible.
func (s *StockRecord) Release(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("cantidad debe ser positiva: %w", domain.ErrInvalidInput)
	}
	if quantity > s.ReservedQuantity {
		return fmt.Errorf("cantidad mayor a la reservada: %w", domain.ErrInvalidInput)
	}
	s.ReservedQuantity -= quantity
	s.AvailableQuantity += quantity
	return nil
}

// DispatchOut lado origen de un traslado: la mercancía sale de disponible y del total.
func (s *StockRecord) DispatchOut(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("cantidad debe ser positiva: %w", domain.ErrInvalidInput)
	}
	if quantity > s.AvailableQuantity {
		return domain.ErrInsufficientStock
	}
	s.AvailableQuantity -= quantity
	s.TotalQuantity -= quantity
	return nil
}

// ReceiveInTransit lado destino de un traslado: la mercancía entra como en tránsito.
func (s *StockRecord) ReceiveInTransit(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("cantidad debe ser positiva: %w", domain.ErrInvalidInput)
	}
	s.InTransitQuantity += quantity
	s.TotalQuantity += quantity
	return nil
}

// ResolveInTransit confirma la recepción: mueve quantity de en tránsito a disponible.
func (s *StockRecord) ResolveInTransit(quantity int64) error {
	if quantity <= 0 {
		return fmt.Errorf("cantidad debe ser positiva: %w", domain.ErrInvalidInput)
	}
	if quantity > s.InTransitQuantity {
		return fmt.Errorf("cantidad mayor a la que está en tránsito: %w", domain.ErrInvalidInput)
	}
	s.InTransitQuantity -= quantity
	s.AvailableQuantity += quantity
	return nil
}
