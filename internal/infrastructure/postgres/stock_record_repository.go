package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/dealer-stock-api/internal/domain"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
)

var _ repository.StockRecordRepository = (*StockRecordRepo)(nil)

const stockSelect = `
	SELECT s.id, s.product_id, s.location_id, s.total_quantity, s.reserved_quantity,
	       s.available_quantity, s.in_transit_quantity, s.location, s.version,
	       s.created_at, s.updated_at, COALESCE(p.name, '')
	FROM stock_records s
	LEFT JOIN products p ON p.id = s.product_id`

// StockRecordRepo implementación de StockRecordRepository sobre PostgreSQL (usable con pool o tx).
type StockRecordRepo struct {
	q Querier
}

// NewStockRecordRepository construye el adaptador del libro. Pasar pool o tx (Querier).
func NewStockRecordRepository(q Querier) *StockRecordRepo {
	return &StockRecordRepo{q: q}
}

// Create inserta un registro nuevo con version 1.
func (r *StockRecordRepo) Create(ctx context.Context, s *entity.StockRecord) error {
	query := `
		INSERT INTO stock_records (id, product_id, location_id, total_quantity, reserved_quantity,
			available_quantity, in_transit_quantity, location, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		s.ID, s.ProductID, s.LocationID, s.TotalQuantity, s.ReservedQuantity,
		s.AvailableQuantity, s.InTransitQuantity, s.Location, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return mapError("insert stock record", err)
	}
	s.Version = 1
	return nil
}

// GetByID obtiene un registro por ID; nil si no existe.
func (r *StockRecordRepo) GetByID(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.getOne(ctx, "get stock record", stockSelect+` WHERE s.id = $1`, id)
}

// GetForUpdate obtiene el registro y bloquea la fila (SELECT ... FOR UPDATE OF s).
func (r *StockRecordRepo) GetForUpdate(ctx context.Context, id string) (*entity.StockRecord, error) {
	return r.getOne(ctx, "get stock record for update", stockSelect+` WHERE s.id = $1 FOR UPDATE OF s`, id)
}

// GetByProductAndLocation busca el registro del par (producto, ubicación). locationID nil = bodega central.
func (r *StockRecordRepo) GetByProductAndLocation(ctx context.Context, productID string, locationID *string) (*entity.StockRecord, error) {
	return r.getOne(ctx, "get stock by product and location",
		stockSelect+` WHERE s.product_id = $1 AND s.location_id IS NOT DISTINCT FROM $2`, productID, locationID)
}

// GetByProductAndLocationForUpdate igual que GetByProductAndLocation pero bloqueando la fila.
func (r *StockRecordRepo) GetByProductAndLocationForUpdate(ctx context.Context, productID string, locationID *string) (*entity.StockRecord, error) {
	return r.getOne(ctx, "get stock by product and location for update",
		stockSelect+` WHERE s.product_id = $1 AND s.location_id IS NOT DISTINCT FROM $2 FOR UPDATE OF s`, productID, locationID)
}

// Update persiste cantidades y etiqueta si la versión coincide; incrementa Version.
// ErrConcurrentUpdate si otra operación modificó el registro.
func (r *StockRecordRepo) Update(ctx context.Context, s *entity.StockRecord) error {
	query := `
		UPDATE stock_records SET total_quantity = $3, reserved_quantity = $4, available_quantity = $5,
			in_transit_quantity = $6, location = $7, updated_at = $8, version = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query,
		s.ID, s.Version, s.TotalQuantity, s.ReservedQuantity, s.AvailableQuantity,
		s.InTransitQuantity, s.Location, s.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return mapError("update stock record", err)
		}
		return fmt.Errorf("update stock record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}
	s.Version++
	return nil
}

// Delete elimina el registro por ID.
func (r *StockRecordRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_records WHERE id = $1`, id)
	if err != nil {
		return mapError("delete stock record", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List aplica filtros, orden y paginación; devuelve además el total sin paginar.
func (r *StockRecordRepo) List(ctx context.Context, f repository.StockFilter) ([]*entity.StockRecord, int, error) {
	where, args := stockWhere(f)

	var total int
	countQuery := `SELECT count(*) FROM stock_records s LEFT JOIN products p ON p.id = s.product_id` + where
	if err := r.q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, mapError("count stock records", err)
	}

	pos := len(args) + 1
	query := stockSelect + where + " ORDER BY " + stockOrder(f.SortBy, f.SortDesc) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError("list stock records", err)
	}
	defer rows.Close()
	var list []*entity.StockRecord
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan stock record: %w", err)
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}

// Statistics agregados del libro; AvailableValue = Σ disponible × MSRP.
func (r *StockRecordRepo) Statistics(ctx context.Context, lowStockThreshold int64) (*repository.StockStatistics, error) {
	query := `
		SELECT count(*),
		       COALESCE(sum(s.total_quantity), 0)::bigint,
		       COALESCE(sum(s.available_quantity), 0)::bigint,
		       COALESCE(sum(s.reserved_quantity), 0)::bigint,
		       COALESCE(sum(s.in_transit_quantity), 0)::bigint,
		       count(*) FILTER (WHERE s.available_quantity < $1),
		       count(*) FILTER (WHERE s.available_quantity = 0),
		       count(*) FILTER (WHERE s.location_id IS NULL),
		       COALESCE(sum(s.available_quantity * COALESCE(p.msrp, 0)), 0)
		FROM stock_records s
		LEFT JOIN products p ON p.id = s.product_id`
	var st repository.StockStatistics
	var value decimal.Decimal
	err := r.q.QueryRow(ctx, query, lowStockThreshold).Scan(
		&st.TotalRecords, &st.TotalQuantity, &st.TotalAvailable, &st.TotalReserved, &st.TotalInTransit,
		&st.LowStockCount, &st.OutOfStockCount, &st.BrandWarehouseCount, &value,
	)
	if err != nil {
		return nil, fmt.Errorf("stock statistics: %w", err)
	}
	st.AvailableValue = value
	return &st, nil
}

// CommittedInTransit suma lo aprobado y aún no entregado de las solicitudes IN_TRANSIT hacia la
// ubicación. La bodega central nunca es destino de una solicitud.
func (r *StockRecordRepo) CommittedInTransit(ctx context.Context, productID string, locationID *string) (int64, error) {
	if locationID == nil {
		return 0, nil
	}
	query := `
		SELECT COALESCE(sum(i.approved_quantity - i.delivered_quantity), 0)::bigint
		FROM sell_in_request_items i
		JOIN sell_in_requests r ON r.id = i.request_id
		WHERE r.status = 'IN_TRANSIT' AND r.dealer_id = $1 AND i.product_id = $2`
	var committed int64
	if err := r.q.QueryRow(ctx, query, *locationID, productID).Scan(&committed); err != nil {
		return 0, mapError("committed in transit", err)
	}
	return committed, nil
}

func (r *StockRecordRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.StockRecord, error) {
	s, err := scanStock(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	return s, nil
}

func scanStock(row pgx.Row) (*entity.StockRecord, error) {
	var s entity.StockRecord
	if err := row.Scan(
		&s.ID, &s.ProductID, &s.LocationID, &s.TotalQuantity, &s.ReservedQuantity,
		&s.AvailableQuantity, &s.InTransitQuantity, &s.Location, &s.Version,
		&s.CreatedAt, &s.UpdatedAt, &s.ProductName,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

// likeEscaper neutraliza los comodines de LIKE en texto del usuario (ESCAPE '\').
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// stockWhere arma el WHERE con placeholders posicionales. Keyword llega ya normalizado (minúsculas, sin tildes).
func stockWhere(f repository.StockFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("s.product_id = $%d", f.ProductID)
	}
	if f.BrandWarehouseOnly {
		conds = append(conds, "s.location_id IS NULL")
	} else if f.LocationID != "" {
		add("s.location_id = $%d", f.LocationID)
	}
	if f.MinAvailable != nil {
		add("s.available_quantity >= $%d", *f.MinAvailable)
	}
	if f.MaxAvailable != nil {
		add("s.available_quantity <= $%d", *f.MaxAvailable)
	}
	if f.AvailableBelow != nil {
		add("s.available_quantity < $%d", *f.AvailableBelow)
	}
	if f.OutOfStockOnly {
		conds = append(conds, "s.available_quantity = 0")
	}
	if f.Keyword != "" {
		args = append(args, likeEscaper.Replace(f.Keyword))
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			`(unaccent(lower(COALESCE(p.name, ''))) LIKE '%%' || $%d || '%%' ESCAPE '\' OR unaccent(lower(s.location)) LIKE '%%' || $%d || '%%' ESCAPE '\')`, n, n))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func stockOrder(sortBy string, desc bool) string {
	col := "p.name"
	switch sortBy {
	case repository.StockSortAvailableQuantity:
		col = "s.available_quantity"
	case repository.StockSortUpdatedAt:
		col = "s.updated_at"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return col + " " + dir + ", s.id ASC"
}
