package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/domain/entity"
	domainRepo "github.com/sangkips/fieldops-api/internal/domain/repository"
	"github.com/sangkips/fieldops-api/pkg/pagination"
	"gorm.io/gorm"
)

// editable columns of a work order; billing columns are owned by MarkInvoiced
var workOrderEditableColumns = []string{
	"title", "description", "status", "scheduled_date", "completed_date",
	"location", "priority", "estimated_hours", "updated_at",
}

type workOrderRepository struct {
	db *gorm.DB
}

// NewWorkOrderRepository creates a new work order repository
func NewWorkOrderRepository(db *gorm.DB) domainRepo.WorkOrderRepository {
	return &workOrderRepository{db: db}
}

func (r *workOrderRepository) Create(ctx context.Context, workOrder *entity.WorkOrder) error {
	return dbFromContext(ctx, r.db).Create(workOrder).Error
}

func (r *workOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.WorkOrder, error) {
	var workOrder entity.WorkOrder
	err := dbFromContext(ctx, r.db).First(&workOrder, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &workOrder, nil
}

func (r *workOrderRepository) Update(ctx context.Context, workOrder *entity.WorkOrder) error {
	return dbFromContext(ctx, r.db).
		Model(workOrder).
		Select(workOrderEditableColumns).
		Updates(workOrder).Error
}

func (r *workOrderRepository) List(ctx context.Context, filter domainRepo.WorkOrderFilter, params *pagination.PaginationParams) ([]entity.WorkOrder, int64, error) {
	var workOrders []entity.WorkOrder
	var total int64

	query := dbFromContext(ctx, r.db).Model(&entity.WorkOrder{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Invoiced != nil {
		query = query.Where("invoiced = ?", *filter.Invoiced)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("created_at DESC").
		Find(&workOrders).Error

	return workOrders, total, err
}

// MarkInvoiced is a compare-and-set on the invoiced flag.
// When no row changes, the current state tells conflict from replay.
func (r *workOrderRepository) MarkInvoiced(ctx context.Context, id, invoiceID uuid.UUID) error {
	result := dbFromContext(ctx, r.db).
		Model(&entity.WorkOrder{}).
		Where("id = ? AND invoiced = ?", id, false).
		Updates(map[string]interface{}{
			"invoiced":   true,
			"invoice_id": invoiceID,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return domainRepo.ErrWorkOrderNotFound
	}
	if current.InvoiceID != nil && *current.InvoiceID == invoiceID {
		return nil
	}
	return domainRepo.ErrWorkOrderAlreadyInvoiced
}
