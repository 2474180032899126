package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Sentinels matched with errors.Is against the typed errors below
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInternal          = errors.New("internal error")
)

// ValidationError reports malformed or out-of-range input. Input checks run
// before a transaction is opened. Checks that need stored data, such as
// quantity overflow or recipe ingredient ownership, run inside the
// transaction before any row is written and roll it back.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a tenant-scoped entity that does not exist
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Shortage describes one ingredient that cannot cover a sale
type Shortage struct {
	IngredientID uint   `json:"ingredient_id"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	Needed       int64  `json:"needed"`
	Available    int64  `json:"available"`
}

// StockError is implemented by errors caused by stock levels
type StockError interface {
	error
	MissingIngredients() []string
}

// InsufficientStockError lists every ingredient that is short for a sale or adjustment
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (needed %d%s, available %d%s)", s.Name, s.Needed, s.Unit, s.Available, s.Unit))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// MissingIngredients returns the names of the short ingredients in order
func (e *InsufficientStockError) MissingIngredients() []string {
	names := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		names = append(names, s.Name)
	}
	return names
}

var _ StockError = (*InsufficientStockError)(nil)

// InternalError wraps an unexpected persistence failure
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }

// classify passes domain errors through and turns anything else into an
// InternalError. A bare gorm.ErrRecordNotFound becomes a NotFoundError for
// the given entity.
func classify(op, entity string, id uint, err error) error {
	if err == nil {
		return nil
	}
	var (
		verr *ValidationError
		nerr *NotFoundError
		serr *InsufficientStockError
		ierr *InternalError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &nerr), errors.As(err, &serr), errors.As(err, &ierr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &NotFoundError{Entity: entity, ID: id}
	}
	return &InternalError{Op: op, Err: err}
}
