package entity

import "time"

// Dealer concesionario. Su ID es la ubicación (LocationID) de los StockRecord del concesionario.
type Dealer struct {
	ID        string
	Name      string
	Address   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
