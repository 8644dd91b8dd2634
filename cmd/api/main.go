package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/jhoicas/dealer-stock-api/internal/application/auth"
	"github.com/jhoicas/dealer-stock-api/internal/application/inventory"
	"github.com/jhoicas/dealer-stock-api/internal/application/sellin"
	"github.com/jhoicas/dealer-stock-api/internal/domain/repository"
	"github.com/jhoicas/dealer-stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/dealer-stock-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/dealer-stock-api/internal/interfaces/http"
	"github.com/jhoicas/dealer-stock-api/pkg/config"
	"github.com/jhoicas/dealer-stock-api/pkg/logger"
)

// storage repositorios y transacciones del backend elegido con STORAGE_DRIVER.
type storage struct {
	stockTx   inventory.TxRunner
	sellInTx  sellin.TxRunner
	stocks    repository.StockRecordRepository
	movements repository.StockMovementRepository
	requests  repository.SellInRequestRepository
	products  repository.ProductRepository
	dealers   repository.DealerRepository
	users     repository.UserRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	appLog := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log := appLog.Zerolog()
	log.Info().
		Str("env", cfg.App.Env).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("inicializar almacenamiento")
	}
	defer store.close()

	stockUC := inventory.NewStockUseCase(
		store.stockTx, store.stocks, store.movements, store.products, store.dealers,
		log, cfg.Inventory.LowStockThreshold,
	)
	sellInUC := sellin.NewSellInUseCase(
		store.sellInTx, store.requests, store.products, store.dealers, store.users,
		stockUC,
		sellin.Config{
			UpcomingDeliveryDays: cfg.Inventory.UpcomingDeliveryDays,
			StalePendingDays:     cfg.Inventory.StalePendingDays,
		},
		log,
	)
	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestID())
	if cfg.HTTP.LogRequests {
		app.Use(httpRouter.RequestLogger(log))
	}

	// Swagger UI en http://localhost:<port>/docs cuando hay un swagger.json generado.
	if cfg.HTTP.SwaggerFile != "" {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.HTTP.SwaggerFile,
			Path:     "docs",
			Title:    "Dealer Stock API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.Storage.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		StockUC:   stockUC,
		SellInUC:  sellInUC,
		AuthUC:    authUC,
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		st := memory.NewStore()
		return &storage{
			stockTx:   st,
			sellInTx:  st,
			stocks:    st.StockRecords(),
			movements: st.StockMovements(),
			requests:  st.SellInRequests(),
			products:  st.Products(),
			dealers:   st.Dealers(),
			users:     st.Users(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info().Msg("esquema aplicado")
	}
	return postgresStorage(pool), nil
}

func postgresStorage(pool *pgxpool.Pool) *storage {
	tx := postgres.NewTxRunner(pool)
	return &storage{
		stockTx:   tx,
		sellInTx:  tx,
		stocks:    postgres.NewStockRecordRepository(pool),
		movements: postgres.NewStockMovementRepository(pool),
		requests:  postgres.NewSellInRequestRepository(pool),
		products:  postgres.NewProductRepository(pool),
		dealers:   postgres.NewDealerRepository(pool),
		users:     postgres.NewUserRepository(pool),
		close:     pool.Close,
	}
}
