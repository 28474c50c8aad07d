package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Índices únicos parciales definidos en migrations/.
const (
	constraintActiveBatchNumber = "ux_stock_batches_active_number"
	constraintCancellationOnce  = "ux_stock_movements_cancellation"
	constraintOpenAlert         = "ux_stock_alerts_open"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// violatedConstraint nombre del constraint que rechazó la sentencia, "" si no aplica.
func violatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// isSerializationFailure 40001 / 40P01: la transacción perdió contra otra concurrente.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// emptyToNil para columnas de texto opcionales con FK.
func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
