package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Las cuatro categorías base se reportan al cliente; las específicas las envuelven
// para que errors.Is funcione contra ambas.
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrPreconditionFailed = errors.New("precondición no cumplida")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrNotOwner           = fmt.Errorf("el recurso pertenece a otro concesionario: %w", ErrForbidden)
	ErrUserNotFound       = fmt.Errorf("usuario no encontrado: %w", ErrNotFound)

	ErrInsufficientStock  = fmt.Errorf("stock disponible insuficiente: %w", ErrInvalidInput)
	ErrStockInvariant     = fmt.Errorf("total debe ser reservado + disponible + en tránsito: %w", ErrInvalidInput)
	ErrEmptyItems         = fmt.Errorf("la solicitud debe tener al menos un ítem: %w", ErrInvalidInput)
	ErrDuplicate          = fmt.Errorf("recurso duplicado: %w", ErrConflict)
	ErrInvalidTransition  = fmt.Errorf("transición de estado no permitida: %w", ErrConflict)
	ErrConcurrentUpdate   = fmt.Errorf("el registro fue modificado por otra operación: %w", ErrConflict)
	ErrInTransitCommitted = fmt.Errorf("las unidades en tránsito pertenecen a un despacho sell-in abierto: %w", ErrConflict)
	ErrStockNotEmpty      = fmt.Errorf("el registro todavía tiene stock: %w", ErrPreconditionFailed)
)
