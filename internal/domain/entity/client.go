package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client represents a billable customer of the field-service business
type Client struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	TaxID         string    `gorm:"size:50;not null;index" json:"tax_id"`
	BusinessName  string    `gorm:"size:255;not null" json:"business_name"`
	Address       string    `gorm:"type:text;not null" json:"address"`
	Email         *string   `gorm:"size:255" json:"email,omitempty"`
	Phone         *string   `gorm:"size:50" json:"phone,omitempty"`
	ContactPerson *string   `gorm:"size:255" json:"contact_person,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new client
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Client model
func (Client) TableName() string {
	return "clients"
}
