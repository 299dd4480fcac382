package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/domain/entity"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"github.com/sangkips/fieldops-api/internal/domain/repository"
	"github.com/sangkips/fieldops-api/pkg/apperror"
	"github.com/sangkips/fieldops-api/pkg/pagination"
)

const defaultWorkOrderPriority = 3

// WorkOrderService handles work order operations. Billing flags are owned by InvoiceService.
type WorkOrderService struct {
	workOrderRepo repository.WorkOrderRepository
	clientRepo    repository.ClientRepository
	now           func() time.Time
}

// NewWorkOrderService creates a new work order service
func NewWorkOrderService(workOrderRepo repository.WorkOrderRepository, clientRepo repository.ClientRepository) *WorkOrderService {
	return &WorkOrderService{
		workOrderRepo: workOrderRepo,
		clientRepo:    clientRepo,
		now:           time.Now,
	}
}

// CreateWorkOrderInput represents the create work order input
type CreateWorkOrderInput struct {
	ClientID       uuid.UUID
	Title          string
	Description    string
	Status         *enum.WorkOrderStatus
	ScheduledDate  *time.Time
	Location       *string
	Priority       *int
	EstimatedHours *float64
}

// UpdateWorkOrderInput carries the fields to change; nil leaves a field as is
type UpdateWorkOrderInput struct {
	Title          *string
	Description    *string
	Status         *enum.WorkOrderStatus
	ScheduledDate  *time.Time
	Location       *string
	Priority       *int
	EstimatedHours *float64
}

// CreateWorkOrder creates a work order for an existing client
func (s *WorkOrderService) CreateWorkOrder(ctx context.Context, input *CreateWorkOrderInput) (*entity.WorkOrder, error) {
	client, err := s.clientRepo.GetByID(ctx, input.ClientID)
	if err != nil {
		return nil, storeErr(err)
	}
	if client == nil {
		return nil, apperror.NewNotFoundError("Client")
	}

	workOrder := &entity.WorkOrder{
		ClientID:       input.ClientID,
		Title:          input.Title,
		Description:    input.Description,
		Status:         enum.WorkOrderStatusPending,
		ScheduledDate:  input.ScheduledDate,
		Location:       input.Location,
		Priority:       defaultWorkOrderPriority,
		EstimatedHours: input.EstimatedHours,
	}
	if input.Status != nil {
		workOrder.Status = *input.Status
	}
	if input.Priority != nil {
		workOrder.Priority = *input.Priority
	}
	if workOrder.Status == enum.WorkOrderStatusCompleted {
		completed := s.now()
		workOrder.CompletedDate = &completed
	}

	if err := validateWorkOrder(workOrder); err != nil {
		return nil, err
	}

	if err := s.workOrderRepo.Create(ctx, workOrder); err != nil {
		return nil, storeErr(err)
	}
	return workOrder, nil
}

// GetWorkOrder retrieves a work order by ID
func (s *WorkOrderService) GetWorkOrder(ctx context.Context, id uuid.UUID) (*entity.WorkOrder, error) {
	workOrder, err := s.workOrderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err)
	}
	if workOrder == nil {
		return nil, apperror.NewNotFoundError("Work order")
	}
	return workOrder, nil
}

// ListWorkOrders lists work orders matching the filter
func (s *WorkOrderService) ListWorkOrders(ctx context.Context, filter repository.WorkOrderFilter, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.WorkOrder], error) {
	workOrders, total, err := s.workOrderRepo.List(ctx, filter, params)
	if err != nil {
		return nil, storeErr(err)
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(workOrders, pag), nil
}

// UpdateWorkOrder applies a partial update. Moving to completed stamps completed_date.
func (s *WorkOrderService) UpdateWorkOrder(ctx context.Context, id uuid.UUID, input *UpdateWorkOrderInput) (*entity.WorkOrder, error) {
	workOrder, err := s.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		workOrder.Title = *input.Title
	}
	if input.Description != nil {
		workOrder.Description = *input.Description
	}
	if input.Status != nil {
		if *input.Status == enum.WorkOrderStatusCompleted && workOrder.Status != enum.WorkOrderStatusCompleted {
			completed := s.now()
			workOrder.CompletedDate = &completed
		}
		workOrder.Status = *input.Status
	}
	if input.ScheduledDate != nil {
		workOrder.ScheduledDate = input.ScheduledDate
	}
	if input.Location != nil {
		workOrder.Location = input.Location
	}
	if input.Priority != nil {
		workOrder.Priority = *input.Priority
	}
	if input.EstimatedHours != nil {
		workOrder.EstimatedHours = input.EstimatedHours
	}

	if err := validateWorkOrder(workOrder); err != nil {
		return nil, err
	}

	if err := s.workOrderRepo.Update(ctx, workOrder); err != nil {
		return nil, storeErr(err)
	}
	return workOrder, nil
}

func validateWorkOrder(w *entity.WorkOrder) error {
	var fieldErrors []apperror.FieldError
	if w.Title == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "title", Message: "is required"})
	}
	if !w.Status.Valid() {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "status", Message: "unknown work order status " + w.Status.String()})
	}
	if w.Priority < 1 || w.Priority > 5 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "priority", Message: "must be between 1 and 5"})
	}
	if w.EstimatedHours != nil && *w.EstimatedHours < 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "estimated_hours", Message: "must not be negative"})
	}
	if len(fieldErrors) > 0 {
		return apperror.NewValidationError(fieldErrors)
	}
	return nil
}
