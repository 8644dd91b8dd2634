package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/dealer-stock-api/internal/domain"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
)

var _ repository.SellInRequestRepository = (*SellInRequestRepo)(nil)

const sellInSelect = `
	SELECT id, request_number, dealer_id, request_date, expected_delivery_date, actual_delivery_date,
	       status, delivery_address, notes, approval_notes, requested_by, approved_by, approved_at,
	       version, created_at, updated_at
	FROM sell_in_requests`

// SellInRequestRepo persistencia del agregado SellInRequest (cabecera + ítems) sobre PostgreSQL.
type SellInRequestRepo struct {
	q Querier
}

// NewSellInRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSellInRequestRepository(q Querier) *SellInRequestRepo {
	return &SellInRequestRepo{q: q}
}

// NextSequence incrementa el contador del año con un upsert; la fila queda bloqueada hasta el fin de la tx.
func (r *SellInRequestRepo) NextSequence(ctx context.Context, year int) (int64, error) {
	query := `
		INSERT INTO sell_in_sequences (year, last_value) VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = sell_in_sequences.last_value + 1
		RETURNING last_value`
	var seq int64
	if err := r.q.QueryRow(ctx, query, year).Scan(&seq); err != nil {
		return 0, mapError("next sell-in sequence", err)
	}
	return seq, nil
}

// Create inserta cabecera e ítems.
func (r *SellInRequestRepo) Create(ctx context.Context, req *entity.SellInRequest) error {
	query := `
		INSERT INTO sell_in_requests (id, request_number, dealer_id, request_date, expected_delivery_date,
			actual_delivery_date, status, delivery_address, notes, approval_notes, requested_by, approved_by,
			approved_at, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, 1, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		req.ID, req.RequestNumber, req.DealerID, req.RequestDate, req.ExpectedDeliveryDate,
		req.ActualDeliveryDate, req.Status, req.DeliveryAddress, req.Notes, req.ApprovalNotes,
		req.RequestedBy, req.ApprovedBy, req.ApprovedAt, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return mapError("insert sell-in request", err)
	}
	if err := r.insertItems(ctx, req); err != nil {
		return err
	}
	req.Version = 1
	return nil
}

// GetByID obtiene la solicitud con sus ítems; nil si no existe.
func (r *SellInRequestRepo) GetByID(ctx context.Context, id string) (*entity.SellInRequest, error) {
	return r.getOne(ctx, "get sell-in request", sellInSelect+` WHERE id = $1`, id)
}

// GetForUpdate obtiene la solicitud bloqueando la cabecera (FOR UPDATE).
func (r *SellInRequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.SellInRequest, error) {
	return r.getOne(ctx, "get sell-in request for update", sellInSelect+` WHERE id = $1 FOR UPDATE`, id)
}

// GetByNumber obtiene la solicitud por número SIR-YYYY-NNNNN.
func (r *SellInRequestRepo) GetByNumber(ctx context.Context, number string) (*entity.SellInRequest, error) {
	return r.getOne(ctx, "get sell-in request by number", sellInSelect+` WHERE request_number = $1`, number)
}

// Update persiste la cabecera si la versión coincide y reemplaza los ítems.
func (r *SellInRequestRepo) Update(ctx context.Context, req *entity.SellInRequest) error {
	query := `
		UPDATE sell_in_requests SET expected_delivery_date = $3, actual_delivery_date = $4, status = $5,
			delivery_address = $6, notes = $7, approval_notes = $8, approved_by = $9, approved_at = $10,
			updated_at = $11, version = version + 1
		WHERE id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query,
		req.ID, req.Version, req.ExpectedDeliveryDate, req.ActualDeliveryDate, req.Status,
		req.DeliveryAddress, req.Notes, req.ApprovalNotes, req.ApprovedBy, req.ApprovedAt, req.UpdatedAt,
	)
	if err != nil {
		return mapError("update sell-in request", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM sell_in_request_items WHERE request_id = $1`, req.ID); err != nil {
		return mapError("delete sell-in items", err)
	}
	if err := r.insertItems(ctx, req); err != nil {
		return err
	}
	req.Version++
	return nil
}

// Delete elimina la solicitud; los ítems caen por ON DELETE CASCADE.
func (r *SellInRequestRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM sell_in_requests WHERE id = $1`, id)
	if err != nil {
		return mapError("delete sell-in request", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List aplica filtros, orden y paginación; los ítems se cargan en una sola consulta adicional.
func (r *SellInRequestRepo) List(ctx context.Context, f repository.SellInFilter) ([]*entity.SellInRequest, int, error) {
	where, args := sellInWhere(f)

	var total int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM sell_in_requests`+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError("count sell-in requests", err)
	}

	pos := len(args) + 1
	query := sellInSelect + where + " ORDER BY " + sellInOrder(f.SortBy, f.SortDesc) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, mapError("list sell-in requests", err)
	}
	var list []*entity.SellInRequest
	byID := make(map[string]*entity.SellInRequest)
	for rows.Next() {
		req, err := scanSellIn(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("scan sell-in request: %w", err)
		}
		list = append(list, req)
		byID[req.ID] = req
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list sell-in requests: %w", err)
	}
	if len(list) == 0 {
		return list, total, nil
	}

	ids := make([]string, 0, len(list))
	for _, req := range list {
		ids = append(ids, req.ID)
	}
	itemRows, err := r.q.Query(ctx, `
		SELECT request_id, id, product_id, requested_quantity, approved_quantity, delivered_quantity, color, notes
		FROM sell_in_request_items WHERE request_id = ANY($1::uuid[]) ORDER BY request_id, line_no`, ids)
	if err != nil {
		return nil, 0, mapError("list sell-in items", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var requestID string
		var it entity.SellInRequestItem
		if err := itemRows.Scan(&requestID, &it.ID, &it.ProductID, &it.RequestedQuantity,
			&it.ApprovedQuantity, &it.DeliveredQuantity, &it.Color, &it.Notes); err != nil {
			return nil, 0, fmt.Errorf("scan sell-in item: %w", err)
		}
		if req := byID[requestID]; req != nil {
			req.Items = append(req.Items, it)
		}
	}
	return list, total, itemRows.Err()
}

func (r *SellInRequestRepo) getOne(ctx context.Context, op, query string, args ...any) (*entity.SellInRequest, error) {
	req, err := scanSellIn(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(op, err)
	}
	items, err := r.loadItems(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Items = items
	return req, nil
}

func (r *SellInRequestRepo) loadItems(ctx context.Context, requestID string) ([]entity.SellInRequestItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, requested_quantity, approved_quantity, delivered_quantity, color, notes
		FROM sell_in_request_items WHERE request_id = $1 ORDER BY line_no`, requestID)
	if err != nil {
		return nil, mapError("load sell-in items", err)
	}
	defer rows.Close()
	var items []entity.SellInRequestItem
	for rows.Next() {
		var it entity.SellInRequestItem
		if err := rows.Scan(&it.ID, &it.ProductID, &it.RequestedQuantity, &it.ApprovedQuantity,
			&it.DeliveredQuantity, &it.Color, &it.Notes); err != nil {
			return nil, fmt.Errorf("scan sell-in item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *SellInRequestRepo) insertItems(ctx context.Context, req *entity.SellInRequest) error {
	query := `
		INSERT INTO sell_in_request_items (id, request_id, line_no, product_id, requested_quantity,
			approved_quantity, delivered_quantity, color, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i, it := range req.Items {
		if _, err := r.q.Exec(ctx, query,
			it.ID, req.ID, i+1, it.ProductID, it.RequestedQuantity, it.ApprovedQuantity,
			it.DeliveredQuantity, it.Color, it.Notes,
		); err != nil {
			return mapError("insert sell-in item", err)
		}
	}
	return nil
}

func scanSellIn(row pgx.Row) (*entity.SellInRequest, error) {
	var req entity.SellInRequest
	if err := row.Scan(
		&req.ID, &req.RequestNumber, &req.DealerID, &req.RequestDate, &req.ExpectedDeliveryDate,
		&req.ActualDeliveryDate, &req.Status, &req.DeliveryAddress, &req.Notes, &req.ApprovalNotes,
		&req.RequestedBy, &req.ApprovedBy, &req.ApprovedAt, &req.Version, &req.CreatedAt, &req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func sellInWhere(f repository.SellInFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.DealerID != "" {
		add("dealer_id = $%d", f.DealerID)
	}
	if len(f.Statuses) > 0 {
		add("status = ANY($%d)", f.Statuses)
	}
	if f.RequestDateFrom != nil {
		add("request_date >= $%d", *f.RequestDateFrom)
	}
	if f.RequestDateTo != nil {
		add("request_date <= $%d", *f.RequestDateTo)
	}
	if f.ExpectedDeliveryFrom != nil {
		add("expected_delivery_date >= $%d", *f.ExpectedDeliveryFrom)
	}
	if f.ExpectedDeliveryTo != nil {
		add("expected_delivery_date <= $%d", *f.ExpectedDeliveryTo)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func sellInOrder(sortBy string, desc bool) string {
	col := "request_date"
	switch sortBy {
	case repository.SellInSortExpectedDeliveryDate:
		col = "expected_delivery_date"
	case repository.SellInSortCreatedAt:
		col = "created_at"
	}
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	return col + " " + dir + " NULLS LAST, request_number ASC"
}
