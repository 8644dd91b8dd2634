package repository

import (
	"context"
	"time"

	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
)

// Claves de ordenamiento para listados de solicitudes sell-in.
const (
	SellInSortRequestDate          = "request_date"
	SellInSortExpectedDeliveryDate = "expected_delivery_date"
	SellInSortCreatedAt            = "created_at"
)

// SellInFilter criterios de búsqueda de solicitudes.
type SellInFilter struct {
	DealerID             string
	Statuses             []string
	RequestDateFrom      *time.Time
	RequestDateTo        *time.Time
	ExpectedDeliveryFrom *time.Time
	ExpectedDeliveryTo   *time.Time
	SortBy               string
	SortDesc             bool
	Limit                int
	Offset               int
}

// SellInRequestRepository puerto de persistencia del agregado SellInRequest (con sus ítems).
// Update reemplaza los ítems completos y aplica bloqueo optimista sobre Version.
type SellInRequestRepository interface {
	// NextSequence devuelve el siguiente consecutivo del año, atómico frente a inserciones concurrentes.
	NextSequence(ctx context.Context, year int) (int64, error)
	Create(ctx context.Context, req *entity.SellInRequest) error
	GetByID(ctx context.Context, id string) (*entity.SellInRequest, error)
	GetForUpdate(ctx context.Context, id string) (*entity.SellInRequest, error)
	GetByNumber(ctx context.Context, number string) (*entity.SellInRequest, error)
	Update(ctx context.Context, req *entity.SellInRequest) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter SellInFilter) ([]*entity.SellInRequest, int, error)
}
