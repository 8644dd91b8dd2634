package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/dealer-stock-api/internal/application/dto"
	"github.com/jhoicas/dealer-stock-api/internal/application/inventory"
	"github.com/jhoicas/dealer-stock-api/internal/domain"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
)

// StockHandler maneja las peticiones HTTP del libro de inventario (protegido).
type StockHandler struct {
	uc  *inventory.StockUseCase
	log zerolog.Logger
}

// NewStockHandler construye el handler.
func NewStockHandler(uc *inventory.StockUseCase, log zerolog.Logger) *StockHandler {
	return &StockHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar stock
// @Description  Filtros combinables por producto, ubicación, rango de disponible, texto y stock bajo/agotado.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id       query  string  false  "Producto"
// @Param        location_id      query  string  false  "Concesionario"
// @Param        brand_warehouse  query  bool    false  "Solo bodega central"
// @Param        min_available    query  int     false  "Disponible mínimo"
// @Param        max_available    query  int     false  "Disponible máximo"
// @Param        q                query  string  false  "Texto en nombre de producto o ubicación"
// @Param        low_stock        query  bool    false  "Solo stock bajo"
// @Param        out_of_stock     query  bool    false  "Solo agotados"
// @Param        threshold        query  int     false  "Umbral de stock bajo"
// @Param        sort             query  string  false  "product_name | available_quantity | updated_at"
// @Param        order            query  string  false  "asc | desc"
// @Param        limit            query  int     false  "Máximo 100"
// @Param        offset           query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.StockListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks [get]
func (h *StockHandler) List(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return badQuery(c, err.Error())
	}
	q := dto.StockQuery{
		PageRequest: page,
		SortRequest: parseSort(c),
		ProductID:   c.Query("product_id"),
		LocationID:  c.Query("location_id"),
		Keyword:     c.Query("q"),
	}
	if q.BrandWarehouseOnly, err = queryBool(c, "brand_warehouse"); err != nil {
		return badQuery(c, err.Error())
	}
	if q.LowStockOnly, err = queryBool(c, "low_stock"); err != nil {
		return badQuery(c, err.Error())
	}
	if q.OutOfStockOnly, err = queryBool(c, "out_of_stock"); err != nil {
		return badQuery(c, err.Error())
	}
	if q.MinAvailable, err = queryInt64Ptr(c, "min_available"); err != nil {
		return badQuery(c, err.Error())
	}
	if q.MaxAvailable, err = queryInt64Ptr(c, "max_available"); err != nil {
		return badQuery(c, err.Error())
	}
	threshold, err := queryInt64Ptr(c, "threshold")
	if err != nil {
		return badQuery(c, err.Error())
	}
	if threshold != nil {
		q.Threshold = *threshold
	}
	out, err := h.uc.List(c.Context(), q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Statistics godoc
// @Summary      Estadísticas del libro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        threshold  query  int  false  "Umbral de stock bajo"
// @Success      200  {object}  dto.StockStatisticsResponse
// @Router       /api/inventory/stocks/statistics [get]
func (h *StockHandler) Statistics(c *fiber.Ctx) error {
	threshold, err := queryInt64Ptr(c, "threshold")
	if err != nil {
		return badQuery(c, err.Error())
	}
	var t int64
	if threshold != nil {
		t = *threshold
	}
	out, err := h.uc.Statistics(c.Context(), t)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Registros con stock bajo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        threshold  query  int  false  "Umbral (por defecto LOW_STOCK_THRESHOLD)"
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/inventory/stocks/low-stock [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return badQuery(c, err.Error())
	}
	threshold, err := queryInt64Ptr(c, "threshold")
	if err != nil {
		return badQuery(c, err.Error())
	}
	var t int64
	if threshold != nil {
		t = *threshold
	}
	out, err := h.uc.LowStock(c.Context(), t, page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// OutOfStock godoc
// @Summary      Registros agotados (disponible = 0)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StockListResponse
// @Router       /api/inventory/stocks/out-of-stock [get]
func (h *StockHandler) OutOfStock(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return badQuery(c, err.Error())
	}
	out, err := h.uc.OutOfStock(c.Context(), page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Lookup godoc
// @Summary      Stock de un producto en una ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id   query  string  true   "Producto"
// @Param        location_id  query  string  false  "Concesionario; vacío = bodega central"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/lookup [get]
func (h *StockHandler) Lookup(c *fiber.Ctx) error {
	out, err := h.uc.GetByProductAndLocation(c.Context(), c.Query("product_id"), optionalLocation(c.Query("location_id")))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener registro de stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del registro"
// @Success      200  {object}  dto.StockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id} [get]
func (h *StockHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Movements godoc
// @Summary      Diario de movimientos de un registro
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del registro"
// @Success      200  {object}  dto.StockMovementListResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id}/movements [get]
func (h *StockHandler) Movements(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return badQuery(c, err.Error())
	}
	out, err := h.uc.Movements(c.Context(), c.Params("id"), page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear registro de stock
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateStockRequest  true  "total = reservado + disponible + en tránsito"
// @Success      201  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks [post]
func (h *StockHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Reemplazar cantidades de un registro
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del registro"
// @Param        body  body  dto.UpdateStockRequest  true  "Cantidades completas"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id} [put]
func (h *StockHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.Context(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar registro vacío
// @Tags         inventory
// @Security     Bearer
// @Param        id  path  string  true  "ID del registro"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      412  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id} [delete]
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.Context(), c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Adjust godoc
// @Summary      Ajustar stock (delta con signo)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID del registro"
// @Param        body  body  dto.AdjustStockRequest  true  "delta y motivo"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id}/adjust [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Adjust(c.Context(), GetUserID(c), c.Params("id"), in.Delta, in.Reason)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Reserve godoc
// @Summary      Reservar stock disponible
// @Description  Un usuario de concesionario solo reserva en los registros de su concesionario.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del registro"
// @Param        body  body  dto.QuantityRequest  true  "cantidad"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id}/reserve [post]
func (h *StockHandler) Reserve(c *fiber.Ctx) error {
	return h.quantityOp(c, h.uc.Reserve, true)
}

// Release godoc
// @Summary      Liberar stock reservado
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del registro"
// @Param        body  body  dto.QuantityRequest  true  "cantidad"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id}/release [post]
func (h *StockHandler) Release(c *fiber.Ctx) error {
	return h.quantityOp(c, h.uc.Release, true)
}

// ResolveInTransit godoc
// @Summary      Confirmar recepción de stock en tránsito
// @Description  Solo lo recibido por traslados manuales; lo que debe entregar una solicitud sell-in en tránsito se confirma con /deliver.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID del registro"
// @Param        body  body  dto.QuantityRequest  true  "cantidad"
// @Success      200  {object}  dto.StockResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id}/resolve-in-transit [post]
func (h *StockHandler) ResolveInTransit(c *fiber.Ctx) error {
	return h.quantityOp(c, h.uc.ResolveInTransit, false)
}

// Transfer godoc
// @Summary      Trasladar stock a otra ubicación
// @Description  Descuenta del disponible del origen y suma en tránsito al destino (se crea si no existe).
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                    true  "ID del registro origen"
// @Param        body  body  dto.TransferStockRequest  true  "destino (null = bodega central) y cantidad"
// @Success      200  {object}  dto.TransferResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/stocks/{id}/transfer [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Transfer(c.Context(), GetUserID(c), c.Params("id"), in.ToLocationID, in.Quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

type quantityFunc func(ctx context.Context, userID, id string, quantity int64) (*dto.StockResponse, error)

// quantityOp con dealerScoped un usuario de concesionario solo opera sobre registros de su concesionario.
func (h *StockHandler) quantityOp(c *fiber.Ctx, fn quantityFunc, dealerScoped bool) error {
	var in dto.QuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if dealerScoped {
		if err := h.checkOwnership(c, c.Params("id")); err != nil {
			return respondError(c, h.log, err)
		}
	}
	out, err := fn(c.Context(), GetUserID(c), c.Params("id"), in.Quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// checkOwnership la bodega central y los registros de otros concesionarios quedan fuera del rol dealer.
func (h *StockHandler) checkOwnership(c *fiber.Ctx, id string) error {
	if GetRole(c) != entity.RoleDealer {
		return nil
	}
	stock, err := h.uc.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	if stock.LocationID == nil || !canSeeDealer(c, *stock.LocationID) {
		return domain.ErrNotOwner
	}
	return nil
}
