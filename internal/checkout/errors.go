package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSubmissionFailed is matched by every remote write failure. Callers
	// show the same message whether or not the order row was created.
	ErrSubmissionFailed = errors.New("no se pudo procesar el pedido")

	ErrEmptyCart = errors.New("el carrito está vacío")

	// ErrOrderTooLarge is a cart whose total cannot be stored on an order.
	ErrOrderTooLarge = errors.New("el pedido supera el monto máximo permitido")
)

// ValidationError lists the required checkout fields that were left blank.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "por favor completa los campos obligatorios: " + strings.Join(e.Fields, ", ")
}

// PersistenceError is a failed order write. Nothing was stored.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("insert order: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrSubmissionFailed }

// PartialWriteError means the order row exists but its lines do not. The
// order is not rolled back.
type PartialWriteError struct {
	OrderID string
	Err     error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("insert lines for order %s: %v", e.OrderID, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return e.Err }

func (e *PartialWriteError) Is(target error) bool { return target == ErrSubmissionFailed }
