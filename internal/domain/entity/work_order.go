package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"gorm.io/gorm"
)

// WorkOrder represents a unit of field work performed for a client.
// Invoiced and InvoiceID only change through settlement.
type WorkOrder struct {
	ID             uuid.UUID            `gorm:"type:uuid;primary_key" json:"id"`
	ClientID       uuid.UUID            `gorm:"type:uuid;not null;index" json:"client_id"`
	Title          string               `gorm:"size:255;not null" json:"title"`
	Description    string               `gorm:"type:text" json:"description"`
	Status         enum.WorkOrderStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`
	ScheduledDate  *time.Time           `gorm:"type:date" json:"scheduled_date,omitempty"`
	CompletedDate  *time.Time           `json:"completed_date,omitempty"`
	Location       *string              `gorm:"size:255" json:"location,omitempty"`
	Priority       int                  `gorm:"not null;default:3" json:"priority"`
	EstimatedHours *float64             `json:"estimated_hours,omitempty"`
	Invoiced       bool                 `gorm:"not null;default:false;index" json:"invoiced"`
	InvoiceID      *uuid.UUID           `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`

	// Relationships
	Client *Client `gorm:"foreignKey:ClientID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new work order
func (w *WorkOrder) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the WorkOrder model
func (WorkOrder) TableName() string {
	return "work_orders"
}
