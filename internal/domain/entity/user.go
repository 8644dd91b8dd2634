package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin        = "admin"
	RoleBrandManager = "brand_manager" // aprueba y despacha solicitudes sell-in
	RoleDealer       = "dealer"        // usuario de concesionario
)

// User usuario del back office. DealerID presente para usuarios de concesionario.
type User struct {
	ID           string
	DealerID     *string
	Email        string
	PasswordHash string // bcrypt
	Name         string
	Role         string
	Status       string // active, inactive
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
