package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio. Los errores tipados de abajo envuelven estos sentinels,
// así que errors.Is funciona igual con ambos.
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrUnauthorized        = errors.New("no autorizado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrInsufficientStock   = errors.New("stock insuficiente")
	ErrInvariantViolation  = errors.New("violación de invariante de lote")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia en el lote")
)

// ValidationError entrada malformada o faltante. No se intentó ningún efecto.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError construye un error de validación para un campo.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// InsufficientStockError condición de negocio: la cantidad elegible no cubre lo pedido.
type InsufficientStockError struct {
	ProductID string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: requerido %s, disponible %s",
		e.ProductID, e.Required.String(), e.Available.String())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InvariantViolationError el cambio dejaría currentQuantity fuera de [0, initialQuantity].
// Nunca se ajusta automáticamente al límite.
type InvariantViolationError struct {
	BatchID string
	Current decimal.Decimal
	Delta   decimal.Decimal
	Initial decimal.Decimal
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("lote %s: %s + (%s) saldría del rango [0, %s]",
		e.BatchID, e.Current.String(), e.Delta.String(), e.Initial.String())
}

func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }

// NotFoundError id de producto, lote o referencia desconocido.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError construye el error para un recurso e id.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
