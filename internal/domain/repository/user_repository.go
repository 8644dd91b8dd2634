package repository

import (
	"context"

	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
)

// UserRepository consulta de usuarios para identidad del solicitante/aprobador y login.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}
