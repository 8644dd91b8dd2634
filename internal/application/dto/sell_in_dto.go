package dto

import "time"

// SellInItemRequest línea en create/update.
type SellInItemRequest struct {
	ProductID         string `json:"product_id" validate:"required"`
	RequestedQuantity int64  `json:"requested_quantity" validate:"min=1"`
	Color             string `json:"color,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// CreateSellInRequest body para POST /api/sell-in-requests.
type CreateSellInRequest struct {
	DealerID             string              `json:"dealer_id" validate:"required"`
	RequestDate          *time.Time          `json:"request_date,omitempty"` // vacío = ahora
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date,omitempty"`
	DeliveryAddress      string              `json:"delivery_address,omitempty"`
	Notes                string              `json:"notes,omitempty"`
	Items                []SellInItemRequest `json:"items" validate:"required,min=1,dive"`
}

// UpdateSellInRequest body para PUT /api/sell-in-requests/:id (solo PENDING; reemplaza ítems).
type UpdateSellInRequest struct {
	ExpectedDeliveryDate *time.Time          `json:"expected_delivery_date,omitempty"`
	DeliveryAddress      string              `json:"delivery_address,omitempty"`
	Notes                string              `json:"notes,omitempty"`
	Items                []SellInItemRequest `json:"items" validate:"required,min=1,dive"`
}

// SellInDecisionRequest body para approve, reject y cancel.
type SellInDecisionRequest struct {
	Notes string `json:"notes"`
}

// ApprovedQuantityRequest body para ajustar la cantidad aprobada de una línea.
type ApprovedQuantityRequest struct {
	Quantity int64 `json:"quantity" validate:"min=0"`
}

// SellInQuery filtros de GET /api/sell-in-requests.
type SellInQuery struct {
	PageRequest
	SortRequest
	DealerID string     `query:"dealer_id"`
	Status   string     `query:"status"`
	From     *time.Time `query:"from"`
	To       *time.Time `query:"to"`
}

// SellInItemResponse salida de una línea.
type SellInItemResponse struct {
	ID                string `json:"id"`
	ProductID         string `json:"product_id"`
	RequestedQuantity int64  `json:"requested_quantity"`
	ApprovedQuantity  int64  `json:"approved_quantity"`
	DeliveredQuantity int64  `json:"delivered_quantity"`
	Color             string `json:"color,omitempty"`
	Notes             string `json:"notes,omitempty"`
}

// SellInResponse salida de una solicitud con campos derivados.
type SellInResponse struct {
	ID                        string               `json:"id"`
	RequestNumber             string               `json:"request_number"`
	DealerID                  string               `json:"dealer_id"`
	RequestDate               time.Time            `json:"request_date"`
	ExpectedDeliveryDate      *time.Time           `json:"expected_delivery_date"`
	ActualDeliveryDate        *time.Time           `json:"actual_delivery_date"`
	Status                    string               `json:"status"`
	DeliveryAddress           string               `json:"delivery_address"`
	Notes                     string               `json:"notes"`
	ApprovalNotes             string               `json:"approval_notes"`
	RequestedBy               *string              `json:"requested_by"`
	ApprovedBy                *string              `json:"approved_by"`
	ApprovedAt                *time.Time           `json:"approved_at"`
	CanApprove                bool                 `json:"can_approve"`
	CanReject                 bool                 `json:"can_reject"`
	CanCancel                 bool                 `json:"can_cancel"`
	DaysUntilExpectedDelivery *int                 `json:"days_until_expected_delivery"`
	TotalRequested            int64                `json:"total_requested"`
	TotalApproved             int64                `json:"total_approved"`
	TotalDelivered            int64                `json:"total_delivered"`
	Items                     []SellInItemResponse `json:"items"`
	Version                   int64                `json:"version"`
	CreatedAt                 time.Time            `json:"created_at"`
	UpdatedAt                 time.Time            `json:"updated_at"`
}

// SellInListResponse lista paginada de solicitudes.
type SellInListResponse struct {
	Items []SellInResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}
