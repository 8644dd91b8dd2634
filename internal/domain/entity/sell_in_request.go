package entity

import (
	"fmt"
	"math"
	"time"

	"github.com/jhoicas/dealer-stock-api/internal/domain"
)

// Estados de una solicitud sell-in (reposición de concesionario).
const (
	SellInStatusPending   = "PENDING"
	SellInStatusApproved  = "APPROVED"
	SellInStatusRejected  = "REJECTED"
	SellInStatusInTransit = "IN_TRANSIT"
	SellInStatusDelivered = "DELIVERED"
	SellInStatusCancelled = "CANCELLED"
)

// RequestNumberPrefix prefijo del número visible: SIR-<año>-<secuencia de 5 dígitos>.
const RequestNumberPrefix = "SIR"

// FormatRequestNumber arma el número visible de la solicitud.
func FormatRequestNumber(year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", RequestNumberPrefix, year, seq)
}

// IsValidSellInStatus indica si s es un estado conocido.
func IsValidSellInStatus(s string) bool {
	switch s {
	case SellInStatusPending, SellInStatusApproved, SellInStatusRejected,
		SellInStatusInTransit, SellInStatusDelivered, SellInStatusCancelled:
		return true
	}
	return false
}

// SellInRequestItem línea de la solicitud. Pertenece a la solicitud por valor.
// Invariante: 0 <= DeliveredQuantity <= ApprovedQuantity <= RequestedQuantity, RequestedQuantity > 0.
type SellInRequestItem struct {
	ID                string
	ProductID         string
	RequestedQuantity int64
	ApprovedQuantity  int64
	DeliveredQuantity int64
	Color             string
	Notes             string
}

// Validate verifica la invariante de cantidades de la línea.
func (it *SellInRequestItem) Validate() error {
	if it.ProductID == "" {
		return fmt.Errorf("product_id requerido: %w", domain.ErrInvalidInput)
	}
	if it.RequestedQuantity <= 0 {
		return fmt.Errorf("cantidad solicitada debe ser positiva: %w", domain.ErrInvalidInput)
	}
	if it.ApprovedQuantity < 0 || it.ApprovedQuantity > it.RequestedQuantity {
		return fmt.Errorf("cantidad aprobada fuera de rango: %w", domain.ErrInvalidInput)
	}
	if it.DeliveredQuantity < 0 || it.DeliveredQuantity > it.ApprovedQuantity {
		return fmt.Errorf("cantidad entregada fuera de rango: %w", domain.ErrInvalidInput)
	}
	return nil
}

// SellInRequest agregado raíz: solicitud de un concesionario para reponer stock desde la bodega central.
type SellInRequest struct {
	ID                   string
	RequestNumber        string
	DealerID             string
	RequestDate          time.Time
	ExpectedDeliveryDate *time.Time
	ActualDeliveryDate   *time.Time
	Status               string
	DeliveryAddress      string
	Notes                string
	ApprovalNotes        string
	RequestedBy          *string
	ApprovedBy           *string
	ApprovedAt           *time.Time
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Items                []SellInRequestItem
}

// Validate verifica que exista al menos una línea y que cada una cumpla su invariante.
func (r *SellInRequest) Validate() error {
	if len(r.Items) == 0 {
		return domain.ErrEmptyItems
	}
	for i := range r.Items {
		if err := r.Items[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *SellInRequest) CanApprove() bool { return r.Status == SellInStatusPending }
func (r *SellInRequest) CanReject() bool  { return r.Status == SellInStatusPending }
func (r *SellInRequest) CanEdit() bool    { return r.Status == SellInStatusPending }

// CanCancel permitido en PENDING y APPROVED (antes del despacho).
func (r *SellInRequest) CanCancel() bool {
	return r.Status == SellInStatusPending || r.Status == SellInStatusApproved
}

// DaysUntilExpectedDelivery días calendario hasta la fecha esperada (negativo si ya pasó); nil si no hay fecha.
func (r *SellInRequest) DaysUntilExpectedDelivery(now time.Time) *int {
	if r.ExpectedDeliveryDate == nil {
		return nil
	}
	d := int(math.Round(truncateDay(*r.ExpectedDeliveryDate).Sub(truncateDay(now)).Hours() / 24))
	return &d
}

// ReplaceItems reemplaza las líneas completas; solo en PENDING. Las cantidades aprobadas/entregadas se reinician.
func (r *SellInRequest) ReplaceItems(items []SellInRequestItem) error {
	if !r.CanEdit() {
		return fmt.Errorf("solo se puede editar una solicitud PENDING: %w", domain.ErrInvalidTransition)
	}
	if len(items) == 0 {
		return domain.ErrEmptyItems
	}
	for i := range items {
		items[i].ApprovedQuantity = 0
		items[i].DeliveredQuantity = 0
		if err := items[i].Validate(); err != nil {
			return err
		}
	}
	r.Items = items
	return nil
}

// Approve PENDING -> APPROVED; cada línea queda aprobada por lo solicitado.
func (r *SellInRequest) Approve(notes, approverID string, now time.Time) error {
	if !r.CanApprove() {
		return r.transitionError(SellInStatusApproved)
	}
	for i := range r.Items {
		r.Items[i].ApprovedQuantity = r.Items[i].RequestedQuantity
	}
	r.Status = SellInStatusApproved
	r.ApprovalNotes = notes
	r.setApprover(approverID, now)
	return nil
}

// Reject PENDING -> REJECTED.
func (r *SellInRequest) Reject(notes, approverID string, now time.Time) error {
	if !r.CanReject() {
		return r.transitionError(SellInStatusRejected)
	}
	r.Status = SellInStatusRejected
	r.ApprovalNotes = notes
	r.setApprover(approverID, now)
	return nil
}

// Cancel PENDING/APPROVED -> CANCELLED.
func (r *SellInRequest) Cancel(notes string) error {
	if !r.CanCancel() {
		return r.transitionError(SellInStatusCancelled)
	}
	r.Status = SellInStatusCancelled
	if notes != "" {
		r.ApprovalNotes = notes
	}
	return nil
}

// SetApprovedQuantity ajuste del aprobador sobre una línea, solo mientras la solicitud está APPROVED.
func (r *SellInRequest) SetApprovedQuantity(itemID string, quantity int64) error {
	if r.Status != SellInStatusApproved {
		return fmt.Errorf("solo se ajusta la cantidad aprobada en estado APPROVED: %w", domain.ErrInvalidTransition)
	}
	item := r.Item(itemID)
	if item == nil {
		return fmt.Errorf("ítem %s: %w", itemID, domain.ErrNotFound)
	}
	if quantity < 0 || quantity > item.RequestedQuantity {
		return fmt.Errorf("cantidad aprobada debe estar entre 0 y %d: %w", item.RequestedQuantity, domain.ErrInvalidInput)
	}
	item.ApprovedQuantity = quantity
	return nil
}

// MarkInTransit APPROVED -> IN_TRANSIT.
func (r *SellInRequest) MarkInTransit() error {
	if r.Status != SellInStatusApproved {
		return r.transitionError(SellInStatusInTransit)
	}
	r.Status = SellInStatusInTransit
	return nil
}

// MarkDelivered IN_TRANSIT -> DELIVERED; lo entregado es lo aprobado.
func (r *SellInRequest) MarkDelivered(now time.Time) error {
	if r.Status != SellInStatusInTransit {
		return r.transitionError(SellInStatusDelivered)
	}
	for i := range r.Items {
		r.Items[i].DeliveredQuantity = r.Items[i].ApprovedQuantity
	}
	today := truncateDay(now)
	r.ActualDeliveryDate = &today
	r.Status = SellInStatusDelivered
	return nil
}

// Item devuelve la línea con el ID dado (puntero al slice interno) o nil.
func (r *SellInRequest) Item(itemID string) *SellInRequestItem {
	for i := range r.Items {
		if r.Items[i].ID == itemID {
			return &r.Items[i]
		}
	}
	return nil
}

// TotalRequested, TotalApproved y TotalDelivered suman las cantidades de las líneas.
func (r *SellInRequest) TotalRequested() int64 {
	var n int64
	for _, it := range r.Items {
		n += it.RequestedQuantity
	}
	return n
}

func (r *SellInRequest) TotalApproved() int64 {
	var n int64
	for _, it := range r.Items {
		n += it.ApprovedQuantity
	}
	return n
}

func (r *SellInRequest) TotalDelivered() int64 {
	var n int64
	for _, it := range r.Items {
		n += it.DeliveredQuantity
	}
	return n
}

func (r *SellInRequest) setApprover(approverID string, now time.Time) {
	if approverID != "" {
		id := approverID
		r.ApprovedBy = &id
	}
	at := now
	r.ApprovedAt = &at
}

func (r *SellInRequest) transitionError(target string) error {
	return fmt.Errorf("%s -> %s: %w", r.Status, target, domain.ErrInvalidTransition)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
