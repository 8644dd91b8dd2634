// seed carga el catálogo base (productos y concesionarios) y un usuario administrador
// en PostgreSQL a partir de archivos CSV separados por punto y coma.
//
// Uso: go run ./cmd/seed -products productos.csv -dealers concesionarios.csv [-latin1]
//
// productos.csv:      id;nombre;msrp
// concesionarios.csv: id;nombre;dirección
//
// El administrador se toma de SEED_ADMIN_EMAIL y SEED_ADMIN_PASSWORD (si están definidas).
// Las exportaciones de hojas de cálculo suelen venir en ISO-8859-1: usar -latin1.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/dealer-stock-api/internal/application/auth"
	"github.com/jhoicas/dealer-stock-api/internal/domain/entity"
	"github.com/jhoicas/dealer-stock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/dealer-stock-api/pkg/config"
	"github.com/jhoicas/dealer-stock-api/pkg/logger"
)

func main() {
	productsPath := flag.String("products", "", "CSV de productos (id;nombre;msrp)")
	dealersPath := flag.String("dealers", "", "CSV de concesionarios (id;nombre;dirección)")
	latin1 := flag.Bool("latin1", false, "los CSV están en ISO-8859-1")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"}).Zerolog()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conectar a postgres")
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("aplicar esquema")
	}

	now := time.Now().UTC()
	if *productsPath != "" {
		repo := postgres.NewProductRepository(pool)
		n, err := loadCSV(*productsPath, *latin1, 3, func(rec []string) error {
			msrp, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
			if err != nil {
				return fmt.Errorf("msrp %q: %w", rec[2], err)
			}
			return repo.Create(ctx, &entity.Product{
				ID: strings.TrimSpace(rec[0]), Name: strings.TrimSpace(rec[1]), MSRP: msrp,
				CreatedAt: now, UpdatedAt: now,
			})
		})
		if err != nil {
			log.Fatal().Err(err).Str("file", *productsPath).Msg("cargar productos")
		}
		log.Info().Int("count", n).Msg("productos cargados")
	}

	if *dealersPath != "" {
		repo := postgres.NewDealerRepository(pool)
		n, err := loadCSV(*dealersPath, *latin1, 3, func(rec []string) error {
			return repo.Create(ctx, &entity.Dealer{
				ID: strings.TrimSpace(rec[0]), Name: strings.TrimSpace(rec[1]), Address: strings.TrimSpace(rec[2]),
				CreatedAt: now, UpdatedAt: now,
			})
		})
		if err != nil {
			log.Fatal().Err(err).Str("file", *dealersPath).Msg("cargar concesionarios")
		}
		log.Info().Int("count", n).Msg("concesionarios cargados")
	}

	if err := seedAdmin(ctx, pool, log, now); err != nil {
		log.Fatal().Err(err).Msg("crear administrador")
	}
}

// loadCSV recorre el archivo omitiendo la cabecera y líneas vacías; fields es el mínimo de columnas.
func loadCSV(path string, latin1 bool, fields int, row func([]string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var in io.Reader = f
	if latin1 {
		in = transform.NewReader(f, charmap.ISO8859_1.NewDecoder())
	}
	r := csv.NewReader(in)
	r.Comma = ';'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	n := 0
	for line := 1; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("línea %d: %w", line, err)
		}
		if line == 1 || len(rec) == 0 || strings.TrimSpace(rec[0]) == "" {
			continue
		}
		if len(rec) < fields {
			return n, fmt.Errorf("línea %d: se esperaban %d columnas, hay %d", line, fields, len(rec))
		}
		if err := row(rec); err != nil {
			return n, fmt.Errorf("línea %d: %w", line, err)
		}
		n++
	}
}

func seedAdmin(ctx context.Context, q postgres.Querier, log zerolog.Logger, now time.Time) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("SEED_ADMIN_EMAIL")))
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Info().Msg("SEED_ADMIN_EMAIL/SEED_ADMIN_PASSWORD no definidas, se omite el administrador")
		return nil
	}
	users := postgres.NewUserRepository(q)
	existing, err := users.FindByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Info().Str("email", email).Msg("administrador ya existe")
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrador",
		Role:         entity.RoleAdmin,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, admin); err != nil {
		return err
	}
	log.Info().Str("email", email).Str("id", admin.ID).Msg("administrador creado")
	return nil
}
