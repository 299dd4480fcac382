package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/domain/entity"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"github.com/sangkips/fieldops-api/pkg/pagination"
)

var (
	// ErrWorkOrderNotFound is returned by MarkInvoiced when the work order does not exist
	ErrWorkOrderNotFound = errors.New("work order not found")
	// ErrWorkOrderAlreadyInvoiced is returned by MarkInvoiced when another invoice holds the work order
	ErrWorkOrderAlreadyInvoiced = errors.New("work order already invoiced")
)

// WorkOrderFilter narrows work order listings
type WorkOrderFilter struct {
	Status   *enum.WorkOrderStatus
	ClientID *uuid.UUID
	Invoiced *bool
}

// WorkOrderRepository defines the interface for work order data operations
type WorkOrderRepository interface {
	Create(ctx context.Context, workOrder *entity.WorkOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.WorkOrder, error)
	// Update persists editable fields. Invoiced and InvoiceID are never written.
	Update(ctx context.Context, workOrder *entity.WorkOrder) error
	List(ctx context.Context, filter WorkOrderFilter, params *pagination.PaginationParams) ([]entity.WorkOrder, int64, error)
	// MarkInvoiced flags the work order as billed by invoiceID, only if it is not flagged yet.
	// Repeating the call with the same invoice succeeds.
	MarkInvoiced(ctx context.Context, id, invoiceID uuid.UUID) error
}
