package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/application/service"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
)

// CreateWorkOrderRequest is the body of POST /work-orders
type CreateWorkOrderRequest struct {
	ClientID       uuid.UUID             `json:"client_id" binding:"required"`
	Title          string                `json:"title" binding:"required"`
	Description    string                `json:"description"`
	Status         *enum.WorkOrderStatus `json:"status"`
	ScheduledDate  *Date                 `json:"scheduled_date"`
	Location       *string               `json:"location"`
	Priority       *int                  `json:"priority" binding:"omitempty,min=1,max=5"`
	EstimatedHours *float64              `json:"estimated_hours" binding:"omitempty,min=0"`
}

// ToInput converts the request into service input
func (r *CreateWorkOrderRequest) ToInput() *service.CreateWorkOrderInput {
	return &service.CreateWorkOrderInput{
		ClientID:       r.ClientID,
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		ScheduledDate:  r.ScheduledDate.Ptr(),
		Location:       r.Location,
		Priority:       r.Priority,
		EstimatedHours: r.EstimatedHours,
	}
}

// UpdateWorkOrderRequest is the body of PUT /work-orders/:id. Absent fields are kept.
// Billing flags are not part of it.
type UpdateWorkOrderRequest struct {
	Title          *string               `json:"title"`
	Description    *string               `json:"description"`
	Status         *enum.WorkOrderStatus `json:"status"`
	ScheduledDate  *Date                 `json:"scheduled_date"`
	Location       *string               `json:"location"`
	Priority       *int                  `json:"priority" binding:"omitempty,min=1,max=5"`
	EstimatedHours *float64              `json:"estimated_hours" binding:"omitempty,min=0"`
}

// ToInput converts the request into service input
func (r *UpdateWorkOrderRequest) ToInput() *service.UpdateWorkOrderInput {
	return &service.UpdateWorkOrderInput{
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		ScheduledDate:  r.ScheduledDate.Ptr(),
		Location:       r.Location,
		Priority:       r.Priority,
		EstimatedHours: r.EstimatedHours,
	}
}
