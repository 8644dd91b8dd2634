package inventory

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

// StockUseCase libro de inventario por (producto, ubicación): alta, ajustes, reservas,
// liberaciones y traslados. Cada mutación bloquea la fila (SELECT FOR UPDATE), valida la
// invariante total = reservado + disponible + en tránsito y deja un movimiento en el diario,
// todo dentro de la misma transacción.
type StockUseCase struct {
	txRunner          TxRunner
	stockRepo         repository.StockRecordRepository
	movRepo           repository.StockMovementRepository
	productRepo       repository.ProductRepository
	dealerRepo        repository.DealerRepository
	log               zerolog.Logger
	lowStockThreshold int64
	now               func() time.Time
}

// NewStockUseCase construye el caso de uso. lowStockThreshold <= 0 usa entity.DefaultLowStockThreshold.
func NewStockUseCase(
	txRunner TxRunner,
	stockRepo repository.StockRecordRepository,
	movRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	dealerRepo repository.DealerRepository,
	log zerolog.Logger,
	lowStockThreshold int64,
) *StockUseCase {
	if lowStockThreshold <= 0 {
		lowStockThreshold = entity.DefaultLowStockThreshold
	}
	return &StockUseCase{
		txRunner:          txRunner,
		stockRepo:         stockRepo,
		movRepo:           movRepo,
		productRepo:       productRepo,
		dealerRepo:        dealerRepo,
		log:               log.With().Str("component", "stock_ledger").Logger(),
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

// LowStockThreshold umbral configurado para stock bajo.
func (uc *StockUseCase) LowStockThreshold() int64 {
	return uc.lowStockThreshold
}

// Create da de alta el stock de un producto en una ubicación.
// ErrDuplicate si ya existe el par (producto, ubicación); ErrStockInvariant si la suma no cuadra.
func (uc *StockUseCase) Create(ctx context.Context, userID string, in dto.CreateStockRequest) (*dto.StockResponse, error) {
	if in.ProductID == "" {
		return nil, fmt.Errorf("product_id requerido: %w", domain.ErrInvalidInput)
	}
	if err := uc.ensureProduct(ctx, in.ProductID); err != nil {
		return nil, err
	}
	if in.LocationID != nil {
		if err := uc.ensureDealer(ctx, *in.LocationID); err != nil {
			return nil, err
		}
	}
	now := uc.now()
	stock := &entity.StockRecord{
		ID:                uuid.New().String(),
		ProductID:         in.ProductID,
		LocationID:        copyID(in.LocationID),
		TotalQuantity:     in.TotalQuantity,
		ReservedQuantity:  in.ReservedQuantity,
		AvailableQuantity: in.AvailableQuantity,
		InTransitQuantity: in.InTransitQuantity,
		Location:          textnorm.Label(in.Location),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := stock.Validate(); err != nil {
		return nil, err
	}

	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRecordRepository, movRepo repository.StockMovementRepository) error {
		existing, err := stockRepo.GetByProductAndLocation(ctx, stock.ProductID, stock.LocationID)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		// El índice único (producto, ubicación) cubre la carrera entre dos altas simultáneas.
		if err := stockRepo.Create(ctx, stock); err != nil {
			return err
		}
		return movRepo.Create(ctx, newMovement(stock, entity.MovementTypeCREATE, stock.TotalQuantity, "", "", userID, now))
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("stock_id", stock.ID).Str("product_id", stock.ProductID).
		Int64("total", stock.TotalQuantity).Msg("registro de stock creado")
	return uc.toResponse(stock), nil
}

// Update reemplaza las cantidades completas de un registro.
func (uc *StockUseCase) Update(ctx context.Context, userID, id string, in dto.UpdateStockRequest) (*dto.StockResponse, error) {
	stock, err := uc.mutate(ctx, id, func(s *entity.StockRecord, now time.Time) (*entity.StockMovement, error) {
		delta := in.TotalQuantity - s.TotalQuantity
		s.TotalQuantity = in.TotalQuantity
		s.ReservedQuantity = in.ReservedQuantity
		s.AvailableQuantity = in.AvailableQuantity
		s.InTransitQuantity = in.InTransitQuantity
		s.Location = textnorm.Label(in.Location)
		return newMovement(s, entity.MovementTypeUPDATE, delta, "", "", userID, now), nil
	})
	if err != nil {
		return nil, err
	}
	return uc.toResponse(stock), nil
}

// Adjust corrige el stock sumando delta (con signo) a total y disponible.
func (uc *StockUseCase) Adjust(ctx context.Context, userID, id string, delta int64, reason string) (*dto.StockResponse, error) {
	reason = textnorm.Label(reason)
	if reason == "" {
		return nil, fmt.Errorf("reason requerido: %w", domain.ErrInvalidInput)
	}
	stock, err := uc.mutate(ctx, id, func(s *entity.StockRecord, now time.Time) (*entity.StockMovement, error) {
		if err := s.Adjust(delta); err != nil {
			return nil, err
		}
		return newMovement(s, entity.MovementTypeADJUSTMENT, delta, reason, "", userID, now), nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("stock_id", id).Int64("delta", delta).Str("reason", reason).Msg("ajuste de stock")
	return uc.toResponse(stock), nil
}

// Reserve aparta quantity del disponible. ErrInsufficientStock si quantity > disponible.
func (uc *StockUseCase) Reserve(ctx context.Context, userID, id string, quantity int64) (*dto.StockResponse, error) {
	stock, err := uc.mutate(ctx, id, func(s *entity.StockRecord, now time.Time) (*entity.StockMovement, error) {
		if err := s.Reserve(quantity); err != nil {
			return nil, err
		}
		return newMovement(s, entity.MovementTypeRESERVE, quantity, "", "", userID, now), nil
	})
	if err != nil {
		return nil, err
	}
	return uc.toResponse(stock), nil
}

// Release devuelve quantity de reservado a disponible.
func (uc *StockUseCase) Release(ctx context.Context, userID, id string, quantity int64) (*dto.StockResponse, error) {
	stock, err := uc.mutate(ctx, id, func(s *entity.StockRecord, now time.Time) (*entity.StockMovement, error) {
		if err := s.Release(quantity); err != nil {
			return nil, err
		}
		return newMovement(s, entity.MovementTypeRELEASE, quantity, "", "", userID, now), nil
	})
	if err != nil {
		return nil, err
	}
	return uc.toResponse(stock), nil
}

// ResolveInTransit confirma la recepción de quantity unidades en tránsito del registro.
// Solo resuelve lo que llegó por traslados manuales: las unidades que aún debe entregar una
// solicitud sell-in en IN_TRANSIT se confirman con MarkDelivered (ErrInTransitCommitted).
func (uc *StockUseCase) ResolveInTransit(ctx context.Context, userID, id string, quantity int64) (*dto.StockResponse, error) {
	var out *entity.StockRecord
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRecordRepository, movRepo repository.StockMovementRepository) error {
		stock, err := stockRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.ErrNotFound
		}
		committed, err := stockRepo.CommittedInTransit(ctx, stock.ProductID, stock.LocationID)
		if err != nil {
			return err
		}
		if quantity > 0 && quantity > stock.InTransitQuantity-committed {
			return fmt.Errorf("libres %d de %d en tránsito: %w",
				max(stock.InTransitQuantity-committed, 0), stock.InTransitQuantity, domain.ErrInTransitCommitted)
		}
		if err := stock.ResolveInTransit(quantity); err != nil {
			return err
		}
		now := uc.now()
		if err := uc.save(ctx, stockRepo, stock, now); err != nil {
			return err
		}
		out = stock
		return movRepo.Create(ctx, newMovement(stock, entity.MovementTypeRESOLVEINTRANSIT, quantity, "", "", userID, now))
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("stock_id", id).Int64("quantity", quantity).Msg("resolución de tránsito rechazada")
		return nil, err
	}
	return uc.toResponse(out), nil
}

// Transfer traslada quantity del registro id a la ubicación toLocationID (nil = bodega central).
// Origen y destino se modifican en una sola transacción; el destino se crea si no existe.
func (uc *StockUseCase) Transfer(ctx context.Context, userID, id string, toLocationID *string, quantity int64) (*dto.TransferResponse, error) {
	var source, dest *entity.StockRecord
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRecordRepository, movRepo repository.StockMovementRepository) error {
		var err error
		source, dest, err = uc.transferInTx(ctx, stockRepo, movRepo, id, toLocationID, quantity, "", userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dto.TransferResponse{Source: *uc.toResponse(source), Destination: *uc.toResponse(dest)}, nil
}

// TransferProductInTx traslada quantity del producto entre dos ubicaciones usando los repositorios
// de la transacción del caller. Lo usa el flujo sell-in al despachar una solicitud.
func (uc *StockUseCase) TransferProductInTx(
	ctx context.Context,
	stockRepo repository.StockRecordRepository,
	movRepo repository.StockMovementRepository,
	productID string,
	fromLocationID, toLocationID *string,
	quantity int64,
	reference, userID string,
) error {
	source, err := stockRepo.GetByProductAndLocation(ctx, productID, fromLocationID)
	if err != nil {
		return err
	}
	if source == nil {
		return fmt.Errorf("producto %s sin stock en origen: %w", productID, domain.ErrInsufficientStock)
	}
	_, _, err = uc.transferInTx(ctx, stockRepo, movRepo, source.ID, toLocationID, quantity, reference, userID)
	return err
}

// ResolveInTransitInTx confirma quantity en tránsito del producto en la ubicación dada, dentro de la
// transacción del caller. Lo usa el flujo sell-in al confirmar la entrega.
func (uc *StockUseCase) ResolveInTransitInTx(
	ctx context.Context,
	stockRepo repository.StockRecordRepository,
	movRepo repository.StockMovementRepository,
	productID string,
	locationID *string,
	quantity int64,
	reference, userID string,
) error {
	stock, err := stockRepo.GetByProductAndLocationForUpdate(ctx, productID, locationID)
	if err != nil {
		return err
	}
	if stock == nil {
		return fmt.Errorf("producto %s sin registro en destino: %w", productID, domain.ErrNotFound)
	}
	if err := stock.ResolveInTransit(quantity); err != nil {
		return err
	}
	now := uc.now()
	if err := uc.save(ctx, stockRepo, stock, now); err != nil {
		return err
	}
	return movRepo.Create(ctx, newMovement(stock, entity.MovementTypeRESOLVEINTRANSIT, quantity, "", reference, userID, now))
}

// Delete elimina un registro vacío. ErrStockNotEmpty si total > 0.
func (uc *StockUseCase) Delete(ctx context.Context, id string) error {
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRecordRepository, _ repository.StockMovementRepository) error {
		stock, err := stockRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.ErrNotFound
		}
		if stock.TotalQuantity > 0 {
			return domain.ErrStockNotEmpty
		}
		return stockRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("stock_id", id).Msg("registro de stock eliminado")
	return nil
}

// GetByID obtiene un registro por ID. ErrNotFound si no existe.
func (uc *StockUseCase) GetByID(ctx context.Context, id string) (*dto.StockResponse, error) {
	stock, err := uc.stockRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, domain.ErrNotFound
	}
	return uc.toResponse(stock), nil
}

// GetByProductAndLocation obtiene el registro del par (producto, ubicación); locationID nil = bodega central.
func (uc *StockUseCase) GetByProductAndLocation(ctx context.Context, productID string, locationID *string) (*dto.StockResponse, error) {
	if productID == "" {
		return nil, fmt.Errorf("product_id requerido: %w", domain.ErrInvalidInput)
	}
	stock, err := uc.stockRepo.GetByProductAndLocation(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, domain.ErrNotFound
	}
	return uc.toResponse(stock), nil
}

// List lista registros con filtros, orden y paginación.
func (uc *StockUseCase) List(ctx context.Context, q dto.StockQuery) (*dto.StockListResponse, error) {
	q.DefaultPage()
	if q.MinAvailable != nil && q.MaxAvailable != nil && *q.MinAvailable > *q.MaxAvailable {
		return nil, fmt.Errorf("min_available mayor que max_available: %w", domain.ErrInvalidInput)
	}
	sortBy, desc := q.Resolve(repository.StockSortProductName,
		repository.StockSortProductName, repository.StockSortAvailableQuantity, repository.StockSortUpdatedAt)
	filter := repository.StockFilter{
		ProductID:          q.ProductID,
		LocationID:         q.LocationID,
		BrandWarehouseOnly: q.BrandWarehouseOnly,
		MinAvailable:       q.MinAvailable,
		MaxAvailable:       q.MaxAvailable,
		Keyword:            textnorm.Fold(q.Keyword),
		OutOfStockOnly:     q.OutOfStockOnly,
		SortBy:             sortBy,
		SortDesc:           desc,
		Limit:              q.Limit,
		Offset:             q.Offset,
	}
	if q.LowStockOnly {
		threshold := uc.threshold(q.Threshold)
		filter.AvailableBelow = &threshold
	}
	list, total, err := uc.stockRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockResponse, 0, len(list))
	for _, s := range list {
		items = append(items, *uc.toResponse(s))
	}
	return &dto.StockListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: total},
	}, nil
}

// LowStock registros con disponible < threshold (threshold <= 0 usa el configurado).
func (uc *StockUseCase) LowStock(ctx context.Context, threshold int64, page dto.PageRequest) (*dto.StockListResponse, error) {
	q := dto.StockQuery{PageRequest: page, LowStockOnly: true, Threshold: threshold}
	q.Sort = repository.StockSortAvailableQuantity
	return uc.List(ctx, q)
}

// OutOfStock registros con disponible == 0.
func (uc *StockUseCase) OutOfStock(ctx context.Context, page dto.PageRequest) (*dto.StockListResponse, error) {
	return uc.List(ctx, dto.StockQuery{PageRequest: page, OutOfStockOnly: true})
}

// Statistics agregados del libro.
func (uc *StockUseCase) Statistics(ctx context.Context, threshold int64) (*dto.StockStatisticsResponse, error) {
	threshold = uc.threshold(threshold)
	stats, err := uc.stockRepo.Statistics(ctx, threshold)
	if err != nil {
		return nil, err
	}
	return &dto.StockStatisticsResponse{
		TotalRecords:        stats.TotalRecords,
		TotalQuantity:       stats.TotalQuantity,
		TotalAvailable:      stats.TotalAvailable,
		TotalReserved:       stats.TotalReserved,
		TotalInTransit:      stats.TotalInTransit,
		LowStockCount:       stats.LowStockCount,
		OutOfStockCount:     stats.OutOfStockCount,
		BrandWarehouseCount: stats.BrandWarehouseCount,
		AvailableValue:      stats.AvailableValue,
		LowStockThreshold:   threshold,
	}, nil
}

// Movements diario de movimientos de un registro, más reciente primero.
func (uc *StockUseCase) Movements(ctx context.Context, id string, page dto.PageRequest) (*dto.StockMovementListResponse, error) {
	page.DefaultPage()
	stock, err := uc.stockRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if stock == nil {
		return nil, domain.ErrNotFound
	}
	list, total, err := uc.movRepo.ListByStock(ctx, id, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.StockMovementResponse, 0, len(list))
	for _, m := range list {
		items = append(items, dto.StockMovementResponse{
			ID:         m.ID,
			StockID:    m.StockID,
			ProductID:  m.ProductID,
			LocationID: m.LocationID,
			Type:       m.Type,
			Quantity:   m.Quantity,
			Reason:     m.Reason,
			Reference:  m.Reference,
			CreatedBy:  m.CreatedBy,
			CreatedAt:  m.CreatedAt,
		})
	}
	return &dto.StockMovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}, nil
}

// mutate bloquea la fila, aplica fn, valida la invariante y persiste registro y movimiento.
func (uc *StockUseCase) mutate(
	ctx context.Context,
	id string,
	fn func(s *entity.StockRecord, now time.Time) (*entity.StockMovement, error),
) (*entity.StockRecord, error) {
	var out *entity.StockRecord
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRecordRepository, movRepo repository.StockMovementRepository) error {
		stock, err := stockRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if stock == nil {
			return domain.ErrNotFound
		}
		now := uc.now()
		mov, err := fn(stock, now)
		if err != nil {
			return err
		}
		if err := uc.save(ctx, stockRepo, stock, now); err != nil {
			return err
		}
		out = stock
		return movRepo.Create(ctx, mov)
	})
	if err != nil {
		uc.log.Warn().Err(err).Str("stock_id", id).Msg("mutación de stock rechazada")
		return nil, err
	}
	return out, nil
}

// transferInTx núcleo del traslado. Bloquea origen y destino en orden de ID para evitar
// interbloqueos entre traslados cruzados.
func (uc *StockUseCase) transferInTx(
	ctx context.Context,
	stockRepo repository.StockRecordRepository,
	movRepo repository.StockMovementRepository,
	sourceID string,
	toLocationID *string,
	quantity int64,
	reference, userID string,
) (*entity.StockRecord, *entity.StockRecord, error) {
	if quantity <= 0 {
		return nil, nil, fmt.Errorf("cantidad debe ser positiva: %w", domain.ErrInvalidInput)
	}
	peek, err := stockRepo.GetByID(ctx, sourceID)
	if err != nil {
		return nil, nil, err
	}
	if peek == nil {
		return nil, nil, domain.ErrNotFound
	}
	if peek.SameLocation(toLocationID) {
		return nil, nil, fmt.Errorf("origen y destino son la misma ubicación: %w", domain.ErrInvalidInput)
	}
	if toLocationID != nil {
		if err := uc.ensureDealer(ctx, *toLocationID); err != nil {
			return nil, nil, err
		}
	}
	destPeek, err := stockRepo.GetByProductAndLocation(ctx, peek.ProductID, toLocationID)
	if err != nil {
		return nil, nil, err
	}

	var source, dest *entity.StockRecord
	if destPeek != nil && destPeek.ID < sourceID {
		if dest, err = stockRepo.GetForUpdate(ctx, destPeek.ID); err != nil {
			return nil, nil, err
		}
		if source, err = stockRepo.GetForUpdate(ctx, sourceID); err != nil {
			return nil, nil, err
		}
	} else {
		if source, err = stockRepo.GetForUpdate(ctx, sourceID); err != nil {
			return nil, nil, err
		}
		if destPeek != nil {
			if dest, err = stockRepo.GetForUpdate(ctx, destPeek.ID); err != nil {
				return nil, nil, err
			}
		}
	}
	if source == nil {
		return nil, nil, domain.ErrNotFound
	}

	now := uc.now()
	if err := source.DispatchOut(quantity); err != nil {
		return nil, nil, err
	}
	created := dest == nil
	if created {
		dest = &entity.StockRecord{
			ID:         uuid.New().String(),
			ProductID:  source.ProductID,
			LocationID: copyID(toLocationID),
			CreatedAt:  now,
		}
	}
	if err := dest.ReceiveInTransit(quantity); err != nil {
		return nil, nil, err
	}

	if err := uc.save(ctx, stockRepo, source, now); err != nil {
		return nil, nil, err
	}
	if created {
		dest.UpdatedAt = now
		if err := dest.Validate(); err != nil {
			return nil, nil, err
		}
		if err := stockRepo.Create(ctx, dest); err != nil {
			return nil, nil, err
		}
	} else if err := uc.save(ctx, stockRepo, dest, now); err != nil {
		return nil, nil, err
	}

	if err := movRepo.Create(ctx, newMovement(source, entity.MovementTypeTRANSFEROUT, -quantity, "", reference, userID, now)); err != nil {
		return nil, nil, err
	}
	if err := movRepo.Create(ctx, newMovement(dest, entity.MovementTypeTRANSFERIN, quantity, "", reference, userID, now)); err != nil {
		return nil, nil, err
	}
	uc.log.Info().Str("source_id", source.ID).Str("dest_id", dest.ID).Int64("quantity", quantity).
		Str("reference", reference).Msg("traslado registrado")
	return source, dest, nil
}

// save valida la invariante y persiste con bloqueo optimista.
func (uc *StockUseCase) save(ctx context.Context, stockRepo repository.StockRecordRepository, stock *entity.StockRecord, now time.Time) error {
	if err := stock.Validate(); err != nil {
		return err
	}
	stock.UpdatedAt = now
	return stockRepo.Update(ctx, stock)
}

func (uc *StockUseCase) ensureProduct(ctx context.Context, productID string) error {
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

func (uc *StockUseCase) ensureDealer(ctx context.Context, dealerID string) error {
	d, err := uc.dealerRepo.GetByID(ctx, dealerID)
	if err != nil {
		return err
	}
	if d == nil {
		return fmt.Errorf("concesionario %s: %w", dealerID, domain.ErrNotFound)
	}
	return nil
}

func (uc *StockUseCase) threshold(t int64) int64 {
	if t <= 0 {
		return uc.lowStockThreshold
	}
	return t
}

func (uc *StockUseCase) toResponse(s *entity.StockRecord) *dto.StockResponse {
	return &dto.StockResponse{
		ID:                s.ID,
		ProductID:         s.ProductID,
		ProductName:       s.ProductName,
		LocationID:        s.LocationID,
		TotalQuantity:     s.TotalQuantity,
		ReservedQuantity:  s.ReservedQuantity,
		AvailableQuantity: s.AvailableQuantity,
		InTransitQuantity: s.InTransitQuantity,
		Location:          s.Location,
		StockPercentage:   s.StockPercentage(),
		IsLowStock:        s.IsLowStock(uc.lowStockThreshold),
		IsOutOfStock:      s.IsOutOfStock(),
		IsBrandWarehouse:  s.IsBrandWarehouse(),
		Version:           s.Version,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}

func newMovement(s *entity.StockRecord, movType string, quantity int64, reason, reference, userID string, now time.Time) *entity.StockMovement {
	return &entity.StockMovement{
		ID:         uuid.New().String(),
		StockID:    s.ID,
		ProductID:  s.ProductID,
		LocationID: copyID(s.LocationID),
		Type:       movType,
		Quantity:   quantity,
		Reason:     reason,
		Reference:  reference,
		CreatedBy:  userID,
		CreatedAt:  now,
	}
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
