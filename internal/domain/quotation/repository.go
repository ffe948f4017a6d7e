package quotation

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lab404/backend/internal/domain/order"
	"github.com/lab404/backend/internal/domain/shared"
)

// StatusCounts holds the per-status quotation counts for statistics
type StatusCounts map[Status]int64

// Repository defines the interface for quotation persistence
type Repository interface {
	// FindByID finds a quotation with its items by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Quotation, error)

	// FindByNumber finds a quotation by its quotation number
	FindByNumber(ctx context.Context, number string) (*Quotation, error)

	// FindAll finds quotations with filtering and pagination
	FindAll(ctx context.Context, filter shared.Filter) ([]Quotation, error)

	// Count counts quotations matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountByStatus returns quotation counts grouped by stored status
	CountByStatus(ctx context.Context) (StatusCounts, error)

	// SumTotalAmount returns the sum of all quotation totals
	SumTotalAmount(ctx context.Context) (decimal.Decimal, error)

	// Save creates or updates a quotation and its items
	Save(ctx context.Context, q *Quotation) error

	// SaveWithLock saves with optimistic locking (version check-and-set)
	SaveWithLock(ctx context.Context, q *Quotation) error

	// SaveConversion persists a conversion as one transaction: marks the
	// converted items consumed (conditioned on consumed still being false),
	// updates the quotation with a version check, and creates the order.
	// A quotation is never left CONVERTED without its order, nor the
	// reverse; a lost item race fails the whole call with a conflict.
	SaveConversion(ctx context.Context, q *Quotation, o *order.Order) error

	// Delete deletes a quotation and its items
	Delete(ctx context.Context, id uuid.UUID) error

	// ExistsByNumber checks if a quotation number is already taken
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// GenerateNumber generates a unique quotation number
	GenerateNumber(ctx context.Context) (string, error)
}
