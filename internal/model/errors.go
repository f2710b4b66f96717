package model

import (
	"errors"
	"fmt"
)

// Error kinds shared by every layer. Callers wrap them with detail using
// fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStockContention    = errors.New("stock update contention")
	ErrDuplicateRequest   = errors.New("duplicate request")
)

// InsufficientStockError is returned by a sell that asks for more than is
// available. It matches ErrInsufficientStock.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

// Is makes errors.Is(err, ErrInsufficientStock) hold.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
