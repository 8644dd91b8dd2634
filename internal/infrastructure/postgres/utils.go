package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/dealer-stock-api/internal/domain"
)

// Códigos SQLSTATE que se traducen a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeForeignKeyViolation  = "23503"
	codeInvalidTextRepr      = "22P02"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// isCheckViolation verifica si un error es una violación de CHECK (23514), p. ej. la suma del libro.
func isCheckViolation(err error) bool {
	return pgCode(err) == codeCheckViolation
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	if err != nil && strings.Contains(err.Error(), "SQLSTATE "+codeUniqueViolation) {
		return codeUniqueViolation
	}
	return ""
}

// mapError traduce errores de PostgreSQL a errores de dominio; op describe la operación para el contexto.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case codeUniqueViolation:
		return domain.ErrDuplicate
	case codeCheckViolation:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "stock_records_sum_check" {
			return domain.ErrStockInvariant
		}
		return fmt.Errorf("%s: %s: %w", op, constraintName(err), domain.ErrInvalidInput)
	case codeForeignKeyViolation:
		return fmt.Errorf("%s: %s: %w", op, constraintName(err), domain.ErrNotFound)
	case codeInvalidTextRepr:
		return fmt.Errorf("%s: identificador mal formado: %w", op, domain.ErrInvalidInput)
	case codeSerializationFailure, codeDeadlockDetected:
		return domain.ErrConcurrentUpdate
	}
	return fmt.Errorf("%s: %w", op, err)
}

func constraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName != "" {
		return pgErr.ConstraintName
	}
	return "restricción"
}
