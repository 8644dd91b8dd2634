package http

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/jhoicas/dealer-stock-api/internal/application/dto"
)

// parsePage lee limit/offset; valores no numéricos son error, ausentes quedan en 0 (el caso de uso aplica defaults).
func parsePage(c *fiber.Ctx) (dto.PageRequest, error) {
	var p dto.PageRequest
	var err error
	if p.Limit, err = queryInt(c, "limit"); err != nil {
		return p, err
	}
	if p.Offset, err = queryInt(c, "offset"); err != nil {
		return p, err
	}
	if p.Limit < 0 || p.Offset < 0 {
		return p, fmt.Errorf("limit y offset no pueden ser negativos")
	}
	return p, nil
}

func parseSort(c *fiber.Ctx) dto.SortRequest {
	return dto.SortRequest{Sort: c.Query("sort"), Order: c.Query("order")}
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s debe ser un entero", key)
	}
	return n, nil
}

func queryInt64Ptr(c *fiber.Ctx, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s debe ser un entero", key)
	}
	return &n, nil
}

func queryBool(c *fiber.Ctx, key string) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s debe ser true o false", key)
	}
	return b, nil
}

// queryTime acepta RFC3339 o fecha simple (2006-01-02, medianoche UTC).
func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s debe ser una fecha (YYYY-MM-DD o RFC3339)", key)
}

// optionalLocation "" = bodega central. Copia el valor: fiber reutiliza el buffer de la petición.
func optionalLocation(raw string) *string {
	if raw == "" {
		return nil
	}
	v := utils.CopyString(raw)
	return &v
}
