package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/dealer-stock-api/internal/application/dto"
	"github.com/jhoicas/dealer-stock-api/internal/application/sellin"
	"github.com/jhoicas/dealer-stock-api/internal/domain"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
)

// SellInHandler maneja las solicitudes de reposición de concesionarios (protegido).
type SellInHandler struct {
	uc  *sellin.SellInUseCase
	log zerolog.Logger
}

// NewSellInHandler construye el handler.
func NewSellInHandler(uc *sellin.SellInUseCase, log zerolog.Logger) *SellInHandler {
	return &SellInHandler{uc: uc, log: log}
}

// List godoc
// @Summary      Listar solicitudes sell-in
// @Tags         sell-in
// @Security     Bearer
// @Produce      json
// @Param        dealer_id  query  string  false  "Concesionario"
// @Param        status     query  string  false  "PENDING | APPROVED | REJECTED | IN_TRANSIT | DELIVERED | CANCELLED"
// @Param        from       query  string  false  "Fecha de solicitud desde (YYYY-MM-DD)"
// @Param        to         query  string  false  "Fecha de solicitud hasta (YYYY-MM-DD)"
// @Param        sort       query  string  false  "request_date | expected_delivery_date | created_at"
// @Param        order      query  string  false  "asc | desc"
// @Success      200  {object}  dto.SellInListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests [get]
func (h *SellInHandler) List(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return badQuery(c, err.Error())
	}
	q := dto.SellInQuery{
		PageRequest: page,
		SortRequest: parseSort(c),
		DealerID:    c.Query("dealer_id"),
		Status:      c.Query("status"),
	}
	if q.From, err = queryTime(c, "from"); err != nil {
		return badQuery(c, err.Error())
	}
	if q.To, err = queryTime(c, "to"); err != nil {
		return badQuery(c, err.Error())
	}
	// Un usuario de concesionario solo ve sus solicitudes.
	if GetRole(c) == entity.RoleDealer {
		if GetDealerID(c) == "" {
			return forbidden(c)
		}
		q.DealerID = GetDealerID(c)
	}
	out, err := h.uc.List(c.Context(), q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListPending godoc
// @Summary      Solicitudes pendientes de aprobación
// @Tags         sell-in
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SellInListResponse
// @Router       /api/sell-in-requests/pending [get]
func (h *SellInHandler) ListPending(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return badQuery(c, err.Error())
	}
	out, err := h.uc.ListPending(c.Context(), page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// UpcomingDeliveries godoc
// @Summary      Entregas próximas (APPROVED o IN_TRANSIT)
// @Description  Un usuario de concesionario solo ve las entregas hacia su concesionario.
// @Tags         sell-in
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Ventana en días (por defecto UPCOMING_DELIVERY_DAYS)"
// @Success      200  {object}  dto.SellInListResponse
// @Router       /api/sell-in-requests/upcoming-deliveries [get]
func (h *SellInHandler) UpcomingDeliveries(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return badQuery(c, err.Error())
	}
	days, err := queryInt(c, "days")
	if err != nil {
		return badQuery(c, err.Error())
	}
	dealerID := ""
	if GetRole(c) == entity.RoleDealer {
		if dealerID = GetDealerID(c); dealerID == "" {
			return forbidden(c)
		}
	}
	out, err := h.uc.UpcomingDeliveries(c.Context(), dealerID, days, page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// StalePending godoc
// @Summary      Solicitudes PENDING estancadas
// @Tags         sell-in
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Antigüedad mínima en días (por defecto STALE_PENDING_DAYS)"
// @Success      200  {object}  dto.SellInListResponse
// @Router       /api/sell-in-requests/stale [get]
func (h *SellInHandler) StalePending(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return badQuery(c, err.Error())
	}
	days, err := queryInt(c, "days")
	if err != nil {
		return badQuery(c, err.Error())
	}
	out, err := h.uc.StalePending(c.Context(), days, page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// ListByDealer godoc
// @Summary      Solicitudes de un concesionario
// @Tags         sell-in
// @Security     Bearer
// @Produce      json
// @Param        dealerId  path  string  true  "Concesionario"
// @Success      200  {object}  dto.SellInListResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests/dealer/{dealerId} [get]
func (h *SellInHandler) ListByDealer(c *fiber.Ctx) error {
	dealerID := c.Params("dealerId")
	if !canSeeDealer(c, dealerID) {
		return forbidden(c)
	}
	page, err := parsePage(c)
	if err != nil {
		return badQuery(c, err.Error())
	}
	out, err := h.uc.ListByDealer(c.Context(), dealerID, page)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByNumber godoc
// @Summary      Obtener solicitud por número
// @Tags         sell-in
// @Security     Bearer
// @Produce      json
// @Param        number  path  string  true  "SIR-YYYY-NNNNN"
// @Success      200  {object}  dto.SellInResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests/number/{number} [get]
func (h *SellInHandler) GetByNumber(c *fiber.Ctx) error {
	out, err := h.uc.GetByNumber(c.Context(), c.Params("number"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	if !canSeeDealer(c, out.DealerID) {
		return forbidden(c)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener solicitud
// @Tags         sell-in
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.SellInResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests/{id} [get]
func (h *SellInHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	if !canSeeDealer(c, out.DealerID) {
		return forbidden(c)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Crear solicitud sell-in
// @Description  Queda en PENDING con número SIR-<año>-<secuencia>. El solicitante es el usuario del token.
// @Tags         sell-in
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateSellInRequest  true  "concesionario e ítems"
// @Success      201  {object}  dto.SellInResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests [post]
func (h *SellInHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateSellInRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if GetRole(c) == entity.RoleDealer {
		if in.DealerID == "" {
			in.DealerID = GetDealerID(c)
		}
		if !canSeeDealer(c, in.DealerID) {
			return forbidden(c)
		}
	}
	out, err := h.uc.Create(c.Context(), GetUserID(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Update godoc
// @Summary      Editar solicitud PENDING (reemplaza ítems)
// @Tags         sell-in
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                   true  "ID de la solicitud"
// @Param        body  body  dto.UpdateSellInRequest  true  "cabecera e ítems"
// @Success      200  {object}  dto.SellInResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests/{id} [put]
func (h *SellInHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateSellInRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if err := h.checkOwnership(c, c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar solicitud PENDING
// @Tags         sell-in
// @Security     Bearer
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests/{id} [delete]
func (h *SellInHandler) Delete(c *fiber.Ctx) error {
	if err := h.checkOwnership(c, c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	if err := h.uc.Delete(c.Context(), c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Approve godoc
// @Summary      Aprobar solicitud (PENDING -> APPROVED)
// @Tags         sell-in
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true   "ID de la solicitud"
// @Param        body  body  dto.SellInDecisionRequest  false  "notas de aprobación"
// @Success      200  {object}  dto.SellInResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests/{id}/approve [post]
func (h *SellInHandler) Approve(c *fiber.Ctx) error {
	in, err := decisionBody(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.Approve(c.Context(), c.Params("id"), in.Notes, GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Reject godoc
// @Summary      Rechazar solicitud (PENDING -> REJECTED)
// @Tags         sell-in
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true   "ID de la solicitud"
// @Param        body  body  dto.SellInDecisionRequest  false  "motivo"
// @Success      200  {object}  dto.SellInResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests/{id}/reject [post]
func (h *SellInHandler) Reject(c *fiber.Ctx) error {
	in, err := decisionBody(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.Reject(c.Context(), c.Params("id"), in.Notes, GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// Cancel godoc
// @Summary      Cancelar solicitud (PENDING o APPROVED)
// @Tags         sell-in
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                     true   "ID de la solicitud"
// @Param        body  body  dto.SellInDecisionRequest  false  "motivo"
// @Success      200  {object}  dto.SellInResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests/{id}/cancel [post]
func (h *SellInHandler) Cancel(c *fiber.Ctx) error {
	in, err := decisionBody(c)
	if err != nil {
		return badBody(c)
	}
	if err := h.checkOwnership(c, c.Params("id")); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Cancel(c.Context(), c.Params("id"), in.Notes)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// AdjustApprovedQuantity godoc
// @Summary      Ajustar cantidad aprobada de un ítem (solo APPROVED)
// @Tags         sell-in
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string                       true  "ID de la solicitud"
// @Param        itemId  path  string                       true  "ID del ítem"
// @Param        body    body  dto.ApprovedQuantityRequest  true  "0 <= cantidad <= solicitada"
// @Success      200  {object}  dto.SellInResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests/{id}/items/{itemId}/approved-quantity [put]
func (h *SellInHandler) AdjustApprovedQuantity(c *fiber.Ctx) error {
	var in dto.ApprovedQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AdjustApprovedQuantity(c.Context(), c.Params("id"), c.Params("itemId"), in.Quantity)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// MarkInTransit godoc
// @Summary      Despachar solicitud (APPROVED -> IN_TRANSIT)
// @Description  Traslada la cantidad aprobada de cada ítem desde la bodega central al concesionario.
// @Tags         sell-in
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.SellInResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests/{id}/in-transit [post]
func (h *SellInHandler) MarkInTransit(c *fiber.Ctx) error {
	out, err := h.uc.MarkInTransit(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// MarkDelivered godoc
// @Summary      Confirmar entrega (IN_TRANSIT -> DELIVERED)
// @Description  Lo entregado es lo aprobado; el stock en tránsito del concesionario pasa a disponible.
// @Tags         sell-in
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.SellInResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/sell-in-requests/{id}/deliver [post]
func (h *SellInHandler) MarkDelivered(c *fiber.Ctx) error {
	out, err := h.uc.MarkDelivered(c.Context(), c.Params("id"), GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(out)
}

// checkOwnership un usuario de concesionario solo opera sobre las solicitudes de su concesionario.
func (h *SellInHandler) checkOwnership(c *fiber.Ctx, id string) error {
	if GetRole(c) != entity.RoleDealer {
		return nil
	}
	req, err := h.uc.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	if !canSeeDealer(c, req.DealerID) {
		return domain.ErrNotOwner
	}
	return nil
}

// decisionBody las notas son opcionales; cuerpo vacío es válido.
func decisionBody(c *fiber.Ctx) (dto.SellInDecisionRequest, error) {
	var in dto.SellInDecisionRequest
	if len(c.Body()) == 0 {
		return in, nil
	}
	err := c.BodyParser(&in)
	return in, err
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
}
