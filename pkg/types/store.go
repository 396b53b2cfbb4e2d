package types

import (
	"context"
	"errors"
)

// Store is the generic create/read/update/delete contract over named
// tables. Conditions in where combine with AND; an empty where matches every
// row. Read paths return nil when nothing matches.
type Store interface {
	// Create inserts data and returns the stored row. Empty data returns
	// ErrEmptyData.
	Create(ctx context.Context, model string, data Record) (Record, error)

	// Update applies patch to matching rows and returns the first updated
	// row, or nil when nothing matched.
	Update(ctx context.Context, model string, where []Where, patch Record) (Record, error)

	// UpdateMany applies patch to matching rows and returns how many rows
	// matched before the update ran.
	UpdateMany(ctx context.Context, model string, where []Where, patch Record) (int64, error)

	// Delete removes matching rows.
	Delete(ctx context.Context, model string, where []Where) error

	// DeleteMany removes matching rows and returns how many matched before
	// the delete ran.
	DeleteMany(ctx context.Context, model string, where []Where) (int64, error)

	// FindOne returns the first matching row projected onto fields, or all
	// columns when fields is empty.
	FindOne(ctx context.Context, model string, where []Where, fields ...string) (Record, error)

	// FindMany returns matching rows bounded and ordered by opts.
	FindMany(ctx context.Context, model string, where []Where, opts FindOptions) ([]Record, error)

	// Count returns the number of matching rows.
	Count(ctx context.Context, model string, where []Where) (int64, error)
}

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
