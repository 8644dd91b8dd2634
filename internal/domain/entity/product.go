package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product vehículo o repuesto del catálogo de la marca. Lo administra otro módulo;
// el libro de inventario solo lo consulta por ID.
type Product struct {
	ID        string
	Name      string
	MSRP      decimal.Decimal // precio sugerido de venta
	CreatedAt time.Time
	UpdatedAt time.Time
}
