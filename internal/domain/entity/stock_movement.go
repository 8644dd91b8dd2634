package entity

import "time"

// Tipos de movimiento del libro de inventario.
const (
	MovementTypeCREATE           = "CREATE"
	MovementTypeUPDATE           = "UPDATE"
	MovementTypeADJUSTMENT       = "ADJUSTMENT"
	MovementTypeRESERVE          = "RESERVE"
	MovementTypeRELEASE          = "RELEASE"
	MovementTypeTRANSFEROUT      = "TRANSFER_OUT"
	MovementTypeTRANSFERIN       = "TRANSFER_IN"
	MovementTypeRESOLVEINTRANSIT = "RESOLVE_IN_TRANSIT"
)

// StockMovement registro inmutable de una mutación sobre un StockRecord.
// Se escribe en la misma transacción que la mutación.
type StockMovement struct {
	ID         string
	StockID    string
	ProductID  string
	LocationID *string
	Type       string
	Quantity   int64  // con signo respecto al total del registro; para reservas, la cantidad movida
	Reason     string // motivo del ajuste o nota libre
	Reference  string // número de solicitud sell-in cuando aplica
	CreatedBy  string
	CreatedAt  time.Time
}
