package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/domain/entity"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"github.com/sangkips/fieldops-api/pkg/pagination"
)

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	Status   *enum.InvoiceStatus
	ClientID *uuid.UUID
}

// InvoiceRepository defines the interface for invoice data operations
type InvoiceRepository interface {
	// Create stores the invoice with its items and work order links
	Create(ctx context.Context, invoice *entity.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter, params *pagination.PaginationParams) ([]entity.Invoice, int64, error)
	// UpdateStatus writes status and payment fields only if the stored status still equals from.
	// It reports whether a row was updated.
	UpdateStatus(ctx context.Context, invoice *entity.Invoice, from enum.InvoiceStatus) (bool, error)
	Count(ctx context.Context) (int64, error)
}

// InvoiceCounterRepository issues sequence values from a counter row
type InvoiceCounterRepository interface {
	// Seed creates the counter with value if it does not exist yet
	Seed(ctx context.Context, name string, value int64) error
	// Increment atomically adds one and returns the new value
	Increment(ctx context.Context, name string) (int64, error)
}
