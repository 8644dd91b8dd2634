package sellin

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/dealer-stock-api/internal/application/dto"
	"github.com/jhoicas/dealer-stock-api/internal/domain"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
	"github.com/jhoicas/dealer-stock-api/pkg/textnorm"
)

// Config ventanas por defecto de las consultas de conveniencia.
type Config struct {
	UpcomingDeliveryDays int // ventana de "próximas entregas"
	StalePendingDays     int // antigüedad para considerar una solicitud PENDING estancada
}

// SellInUseCase flujo de reposición: solicitud -> aprobación -> despacho -> entrega.
// El despacho traslada stock de la bodega central al concesionario y la entrega lo
// confirma como disponible, en la misma transacción que el cambio de estado.
type SellInUseCase struct {
	txRunner    TxRunner
	reqRepo     repository.SellInRequestRepository
	productRepo repository.ProductRepository
	dealerRepo  repository.DealerRepository
	userRepo    repository.UserRepository
	ledger      StockLedger
	cfg         Config
	log         zerolog.Logger
	now         func() time.Time
}

// NewSellInUseCase construye el caso de uso.
func NewSellInUseCase(
	txRunner TxRunner,
	reqRepo repository.SellInRequestRepository,
	productRepo repository.ProductRepository,
	dealerRepo repository.DealerRepository,
	userRepo repository.UserRepository,
	ledger StockLedger,
	cfg Config,
	log zerolog.Logger,
) *SellInUseCase {
	if cfg.UpcomingDeliveryDays <= 0 {
		cfg.UpcomingDeliveryDays = 7
	}
	if cfg.StalePendingDays <= 0 {
		cfg.StalePendingDays = 30
	}
	return &SellInUseCase{
		txRunner:    txRunner,
		reqRepo:     reqRepo,
		productRepo: productRepo,
		dealerRepo:  dealerRepo,
		userRepo:    userRepo,
		ledger:      ledger,
		cfg:         cfg,
		log:         log.With().Str("component", "sell_in").Logger(),
		now:         time.Now,
	}
}

// Create registra una solicitud PENDING con número SIR-<año>-<secuencia>.
func (uc *SellInUseCase) Create(ctx context.Context, requesterID string, in dto.CreateSellInRequest) (*dto.SellInResponse, error) {
	if in.DealerID == "" {
		return nil, fmt.Errorf("dealer_id requerido: %w", domain.ErrInvalidInput)
	}
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyItems
	}
	if err := uc.ensureDealer(ctx, in.DealerID); err != nil {
		return nil, err
	}
	requestedBy, err := uc.resolveUser(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	items, err := uc.buildItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	requestDate := now
	if in.RequestDate != nil {
		requestDate = *in.RequestDate
	}
	req := &entity.SellInRequest{
		ID:                   uuid.New().String(),
		DealerID:             in.DealerID,
		RequestDate:          requestDate,
		ExpectedDeliveryDate: in.ExpectedDeliveryDate,
		Status:               entity.SellInStatusPending,
		DeliveryAddress:      textnorm.Label(in.DeliveryAddress),
		Notes:                in.Notes,
		RequestedBy:          requestedBy,
		CreatedAt:            now,
		UpdatedAt:            now,
		Items:                items,
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	err = uc.txRunner.RunSellIn(ctx, func(reqRepo repository.SellInRequestRepository, _ repository.StockRecordRepository, _ repository.StockMovementRepository) error {
		seq, err := reqRepo.NextSequence(ctx, now.Year())
		if err != nil {
			return err
		}
		req.RequestNumber = entity.FormatRequestNumber(now.Year(), seq)
		return reqRepo.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("request_id", req.ID).Str("request_number", req.RequestNumber).
		Str("dealer_id", req.DealerID).Int("items", len(req.Items)).Msg("solicitud sell-in creada")
	return uc.toResponse(req), nil
}

// Update reemplaza cabecera editable e ítems; solo en PENDING.
func (uc *SellInUseCase) Update(ctx context.Context, id string, in dto.UpdateSellInRequest) (*dto.SellInResponse, error) {
	if len(in.Items) == 0 {
		return nil, domain.ErrEmptyItems
	}
	items, err := uc.buildItems(ctx, in.Items)
	if err != nil {
		return nil, err
	}
	return uc.transition(ctx, id, "actualizada", func(req *entity.SellInRequest, _ repository.StockRecordRepository, _ repository.StockMovementRepository) error {
		if err := req.ReplaceItems(items); err != nil {
			return err
		}
		req.ExpectedDeliveryDate = in.ExpectedDeliveryDate
		req.DeliveryAddress = textnorm.Label(in.DeliveryAddress)
		req.Notes = in.Notes
		return nil
	})
}

// Approve PENDING -> APPROVED. Cada ítem queda aprobado por lo solicitado.
func (uc *SellInUseCase) Approve(ctx context.Context, id, notes, approverID string) (*dto.SellInResponse, error) {
	if _, err := uc.resolveUser(ctx, approverID); err != nil {
		return nil, err
	}
	return uc.transition(ctx, id, "aprobada", func(req *entity.SellInRequest, _ repository.StockRecordRepository, _ repository.StockMovementRepository) error {
		return req.Approve(notes, approverID, uc.now())
	})
}

// Reject PENDING -> REJECTED.
func (uc *SellInUseCase) Reject(ctx context.Context, id, notes, approverID string) (*dto.SellInResponse, error) {
	if _, err := uc.resolveUser(ctx, approverID); err != nil {
		return nil, err
	}
	return uc.transition(ctx, id, "rechazada", func(req *entity.SellInRequest, _ repository.StockRecordRepository, _ repository.StockMovementRepository) error {
		return req.Reject(notes, approverID, uc.now())
	})
}

// Cancel PENDING/APPROVED -> CANCELLED. Aún no hay stock en movimiento, no toca el libro.
func (uc *SellInUseCase) Cancel(ctx context.Context, id, notes string) (*dto.SellInResponse, error) {
	return uc.transition(ctx, id, "cancelada", func(req *entity.SellInRequest, _ repository.StockRecordRepository, _ repository.StockMovementRepository) error {
		return req.Cancel(notes)
	})
}

// AdjustApprovedQuantity el aprobador corrige la cantidad aprobada de un ítem (solo APPROVED).
func (uc *SellInUseCase) AdjustApprovedQuantity(ctx context.Context, id, itemID string, quantity int64) (*dto.SellInResponse, error) {
	return uc.transition(ctx, id, "cantidad aprobada ajustada", func(req *entity.SellInRequest, _ repository.StockRecordRepository, _ repository.StockMovementRepository) error {
		return req.SetApprovedQuantity(itemID, quantity)
	})
}

// MarkInTransit APPROVED -> IN_TRANSIT. Traslada la cantidad aprobada de cada ítem desde la
// bodega central al concesionario; si algún ítem falla, no se aplica nada.
func (uc *SellInUseCase) MarkInTransit(ctx context.Context, id, userID string) (*dto.SellInResponse, error) {
	return uc.transition(ctx, id, "despachada", func(req *entity.SellInRequest, stockRepo repository.StockRecordRepository, movRepo repository.StockMovementRepository) error {
		if err := req.MarkInTransit(); err != nil {
			return err
		}
		dealerID := req.DealerID
		for _, it := range req.Items {
			if it.ApprovedQuantity == 0 {
				continue
			}
			if err := uc.ledger.TransferProductInTx(ctx, stockRepo, movRepo,
				it.ProductID, nil, &dealerID, it.ApprovedQuantity, req.RequestNumber, userID); err != nil {
				return fmt.Errorf("ítem %s: %w", it.ID, err)
			}
		}
		return nil
	})
}

// MarkDelivered IN_TRANSIT -> DELIVERED. Lo entregado es lo aprobado y el stock en tránsito del
// concesionario pasa a disponible.
func (uc *SellInUseCase) MarkDelivered(ctx context.Context, id, userID string) (*dto.SellInResponse, error) {
	return uc.transition(ctx, id, "entregada", func(req *entity.SellInRequest, stockRepo repository.StockRecordRepository, movRepo repository.StockMovementRepository) error {
		if err := req.MarkDelivered(uc.now()); err != nil {
			return err
		}
		dealerID := req.DealerID
		for _, it := range req.Items {
			if it.DeliveredQuantity == 0 {
				continue
			}
			if err := uc.ledger.ResolveInTransitInTx(ctx, stockRepo, movRepo,
				it.ProductID, &dealerID, it.DeliveredQuantity, req.RequestNumber, userID); err != nil {
				return fmt.Errorf("ítem %s: %w", it.ID, err)
			}
		}
		return nil
	})
}

// Delete elimina la solicitud con sus ítems; solo en PENDING.
func (uc *SellInUseCase) Delete(ctx context.Context, id string) error {
	err := uc.txRunner.RunSellIn(ctx, func(reqRepo repository.SellInRequestRepository, _ repository.StockRecordRepository, _ repository.StockMovementRepository) error {
		req, err := reqRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		if !req.CanEdit() {
			return fmt.Errorf("solo se elimina una solicitud PENDING: %w", domain.ErrInvalidTransition)
		}
		return reqRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("request_id", id).Msg("solicitud sell-in eliminada")
	return nil
}

// GetByID obtiene una solicitud por ID.
func (uc *SellInUseCase) GetByID(ctx context.Context, id string) (*dto.SellInResponse, error) {
	req, err := uc.reqRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	return uc.toResponse(req), nil
}

// GetByNumber obtiene una solicitud por su número SIR-YYYY-NNNNN.
func (uc *SellInUseCase) GetByNumber(ctx context.Context, number string) (*dto.SellInResponse, error) {
	req, err := uc.reqRepo.GetByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	return uc.toResponse(req), nil
}

// List lista solicitudes por concesionario, estado y rango de fecha de solicitud.
func (uc *SellInUseCase) List(ctx context.Context, q dto.SellInQuery) (*dto.SellInListResponse, error) {
	q.DefaultPage()
	if q.Status != "" && !entity.IsValidSellInStatus(q.Status) {
		return nil, fmt.Errorf("status %q desconocido: %w", q.Status, domain.ErrInvalidInput)
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return nil, fmt.Errorf("from posterior a to: %w", domain.ErrInvalidInput)
	}
	sortBy, desc := q.Resolve(repository.SellInSortRequestDate,
		repository.SellInSortRequestDate, repository.SellInSortExpectedDeliveryDate, repository.SellInSortCreatedAt)
	filter := repository.SellInFilter{
		DealerID:        q.DealerID,
		RequestDateFrom: q.From,
		RequestDateTo:   q.To,
		SortBy:          sortBy,
		SortDesc:        desc,
		Limit:           q.Limit,
		Offset:          q.Offset,
	}
	if q.Status != "" {
		filter.Statuses = []string{q.Status}
	}
	return uc.list(ctx, filter)
}

// ListByDealer solicitudes de un concesionario, más recientes primero.
func (uc *SellInUseCase) ListByDealer(ctx context.Context, dealerID string, page dto.PageRequest) (*dto.SellInListResponse, error) {
	q := dto.SellInQuery{PageRequest: page, DealerID: dealerID}
	q.Order = "desc"
	return uc.List(ctx, q)
}

// ListPending solicitudes PENDING, más antiguas primero.
func (uc *SellInUseCase) ListPending(ctx context.Context, page dto.PageRequest) (*dto.SellInListResponse, error) {
	return uc.List(ctx, dto.SellInQuery{PageRequest: page, Status: entity.SellInStatusPending})
}

// UpcomingDeliveries solicitudes APPROVED o IN_TRANSIT con entrega esperada entre hoy y hoy+days.
// dealerID vacío no filtra por concesionario.
func (uc *SellInUseCase) UpcomingDeliveries(ctx context.Context, dealerID string, days int, page dto.PageRequest) (*dto.SellInListResponse, error) {
	page.DefaultPage()
	if days <= 0 {
		days = uc.cfg.UpcomingDeliveryDays
	}
	from := startOfDay(uc.now())
	to := from.AddDate(0, 0, days+1).Add(-time.Nanosecond)
	return uc.list(ctx, repository.SellInFilter{
		DealerID:             dealerID,
		Statuses:             []string{entity.SellInStatusApproved, entity.SellInStatusInTransit},
		ExpectedDeliveryFrom: &from,
		ExpectedDeliveryTo:   &to,
		SortBy:               repository.SellInSortExpectedDeliveryDate,
		Limit:                page.Limit,
		Offset:               page.Offset,
	})
}

// StalePending solicitudes PENDING con fecha de solicitud anterior a hoy-olderThanDays.
func (uc *SellInUseCase) StalePending(ctx context.Context, olderThanDays int, page dto.PageRequest) (*dto.SellInListResponse, error) {
	page.DefaultPage()
	if olderThanDays <= 0 {
		olderThanDays = uc.cfg.StalePendingDays
	}
	cutoff := startOfDay(uc.now()).AddDate(0, 0, -olderThanDays).Add(-time.Nanosecond)
	return uc.list(ctx, repository.SellInFilter{
		Statuses:      []string{entity.SellInStatusPending},
		RequestDateTo: &cutoff,
		SortBy:        repository.SellInSortRequestDate,
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
}

// transition carga la solicitud bloqueada, aplica fn y persiste con control de versión.
func (uc *SellInUseCase) transition(
	ctx context.Context,
	id, action string,
	fn func(req *entity.SellInRequest, stockRepo repository.StockRecordRepository, movRepo repository.StockMovementRepository) error,
) (*dto.SellInResponse, error) {
	var out *entity.SellInRequest
	err := uc.txRunner.RunSellIn(ctx, func(reqRepo repository.SellInRequestRepository, stockRepo repository.StockRecordRepository, movRepo repository.StockMovementRepository) error {
		req, err := reqRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if req == nil {
			return domain.ErrNotFound
		}
		if err := fn(req, stockRepo, movRepo); err != nil {
			return err
		}
		if err := req.Validate(); err != nil {
			return err
		}
		req.UpdatedAt = uc.now()
		if err := reqRepo.Update(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("request_id", id).Str("action", action).Msg("operación sell-in rechazada")
		return nil, err
	}
	uc.log.Info().Str("request_id", out.ID).Str("request_number", out.RequestNumber).
		Str("status", out.Status).Msg("solicitud sell-in " + action)
	return uc.toResponse(out), nil
}

func (uc *SellInUseCase) list(ctx context.Context, filter repository.SellInFilter) (*dto.SellInListResponse, error) {
	list, total, err := uc.reqRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SellInResponse, 0, len(list))
	for _, r := range list {
		items = append(items, *uc.toResponse(r))
	}
	return &dto.SellInListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: filter.Limit, Offset: filter.Offset, Total: total},
	}, nil
}

func (uc *SellInUseCase) buildItems(ctx context.Context, in []dto.SellInItemRequest) ([]entity.SellInRequestItem, error) {
	items := make([]entity.SellInRequestItem, 0, len(in))
	for _, it := range in {
		if it.ProductID == "" {
			return nil, fmt.Errorf("product_id requerido: %w", domain.ErrInvalidInput)
		}
		p, err := uc.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("producto %s: %w", it.ProductID, domain.ErrNotFound)
		}
		items = append(items, entity.SellInRequestItem{
			ID:                uuid.New().String(),
			ProductID:         it.ProductID,
			RequestedQuantity: it.RequestedQuantity,
			Color:             textnorm.Label(it.Color),
			Notes:             it.Notes,
		})
	}
	return items, nil
}

func (uc *SellInUseCase) ensureDealer(ctx context.Context, dealerID string) error {
	d, err := uc.dealerRepo.GetByID(ctx, dealerID)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("concesionario %s: %w", dealerID, domain.ErrNotFound)
	}
	return nil
}

// resolveUser valida que el usuario exista; userID vacío = sin identidad registrada.
func (uc *SellInUseCase) resolveUser(ctx context.Context, userID string) (*string, error) {
	if userID == "" {
		return nil, nil
	}
	u, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.ErrUserNotFound
	}
	id := u.ID
	return &id, nil
}

func (uc *SellInUseCase) toResponse(r *entity.SellInRequest) *dto.SellInResponse {
	items := make([]dto.SellInItemResponse, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, dto.SellInItemResponse{
			ID:                it.ID,
			ProductID:         it.ProductID,
			RequestedQuantity: it.RequestedQuantity,
			ApprovedQuantity:  it.ApprovedQuantity,
			DeliveredQuantity: it.DeliveredQuantity,
			Color:             it.Color,
			Notes:             it.Notes,
		})
	}
	return &dto.SellInResponse{
		ID:                        r.ID,
		RequestNumber:             r.RequestNumber,
		DealerID:                  r.DealerID,
		RequestDate:               r.RequestDate,
		ExpectedDeliveryDate:      r.ExpectedDeliveryDate,
		ActualDeliveryDate:        r.ActualDeliveryDate,
		Status:                    r.Status,
		DeliveryAddress:           r.DeliveryAddress,
		Notes:                     r.Notes,
		ApprovalNotes:             r.ApprovalNotes,
		RequestedBy:               r.RequestedBy,
		ApprovedBy:                r.ApprovedBy,
		ApprovedAt:                r.ApprovedAt,
		CanApprove:                r.CanApprove(),
		CanReject:                 r.CanReject(),
		CanCancel:                 r.CanCancel(),
		DaysUntilExpectedDelivery: r.DaysUntilExpectedDelivery(uc.now()),
		TotalRequested:            r.TotalRequested(),
		TotalApproved:             r.TotalApproved(),
		TotalDelivered:            r.TotalDelivered(),
		Items:                     items,
		Version:                   r.Version,
		CreatedAt:                 r.CreatedAt,
		UpdatedAt:                 r.UpdatedAt,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
