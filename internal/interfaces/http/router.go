package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/dealer-stock-api/internal/application/auth"
	"github.com/jhoicas/dealer-stock-api/internal/application/inventory"
	"github.com/jhoicas/dealer-stock-api/internal/application/sellin"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	StockUC   *inventory.StockUseCase
	SellInUC  *sellin.SellInUseCase
	AuthUC    *auth.AuthUseCase
	JWTSecret string
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth
	authHandler := NewAuthHandler(deps.AuthUC, deps.Log)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Get("/me", AuthMiddleware(deps.JWTSecret), authHandler.Me)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	brandOnly := RequireRole(entity.RoleAdmin, entity.RoleBrandManager)

	// Libro de inventario. Las rutas estáticas van antes de /:id.
	stockHandler := NewStockHandler(deps.StockUC, deps.Log)
	stocks := protected.Group("/inventory/stocks")
	stocks.Get("/", stockHandler.List)
	stocks.Get("/statistics", stockHandler.Statistics)
	stocks.Get("/low-stock", stockHandler.LowStock)
	stocks.Get("/out-of-stock", stockHandler.OutOfStock)
	stocks.Get("/lookup", stockHandler.Lookup)
	stocks.Post("/", brandOnly, stockHandler.Create)
	stocks.Get("/:id", stockHandler.GetByID)
	stocks.Get("/:id/movements", stockHandler.Movements)
	stocks.Put("/:id", brandOnly, stockHandler.Update)
	stocks.Delete("/:id", brandOnly, stockHandler.Delete)
	stocks.Post("/:id/adjust", brandOnly, stockHandler.Adjust)
	stocks.Post("/:id/reserve", stockHandler.Reserve)
	stocks.Post("/:id/release", stockHandler.Release)
	stocks.Post("/:id/resolve-in-transit", brandOnly, stockHandler.ResolveInTransit)
	stocks.Post("/:id/transfer", brandOnly, stockHandler.Transfer)

	// Solicitudes sell-in. El rol dealer queda acotado a su concesionario en cada handler.
	sellInHandler := NewSellInHandler(deps.SellInUC, deps.Log)
	requests := protected.Group("/sell-in-requests")
	requests.Get("/", sellInHandler.List)
	requests.Get("/pending", brandOnly, sellInHandler.ListPending)
	requests.Get("/upcoming-deliveries", sellInHandler.UpcomingDeliveries)
	requests.Get("/stale", brandOnly, sellInHandler.StalePending)
	requests.Get("/number/:number", sellInHandler.GetByNumber)
	requests.Get("/dealer/:dealerId", sellInHandler.ListByDealer)
	requests.Post("/", sellInHandler.Create)
	requests.Get("/:id", sellInHandler.GetByID)
	requests.Put("/:id", sellInHandler.Update)
	requests.Delete("/:id", sellInHandler.Delete)
	requests.Post("/:id/approve", brandOnly, sellInHandler.Approve)
	requests.Post("/:id/reject", brandOnly, sellInHandler.Reject)
	requests.Post("/:id/cancel", sellInHandler.Cancel)
	requests.Post("/:id/in-transit", brandOnly, sellInHandler.MarkInTransit)
	requests.Post("/:id/deliver", brandOnly, sellInHandler.MarkDelivered)
	requests.Put("/:id/items/:itemId/approved-quantity", brandOnly, sellInHandler.AdjustApprovedQuantity)
}
