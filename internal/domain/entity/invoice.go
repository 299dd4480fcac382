package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// money and quantities are written as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultTaxRate is the IVA percentage applied when a line item does not carry one
var DefaultTaxRate = decimal.NewFromInt(22)

// Invoice represents a fiscal document settling one or more work orders.
// Amounts are computed once at creation and never recomputed.
type Invoice struct {
	ID             uuid.UUID          `gorm:"type:uuid;primary_key" json:"id"`
	ClientID       uuid.UUID          `gorm:"type:uuid;not null;index" json:"client_id"`
	InvoiceNumber  string             `gorm:"size:50;uniqueIndex;not null" json:"invoice_number"`
	IssueDate      time.Time          `gorm:"type:date;not null" json:"issue_date"`
	DueDate        *time.Time         `gorm:"type:date" json:"due_date,omitempty"`
	InvoiceType    enum.InvoiceType   `gorm:"size:20;not null" json:"invoice_type"`
	Status         enum.InvoiceStatus `gorm:"size:20;not null;index" json:"status"`
	Subtotal       decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"subtotal"`
	TaxAmount      decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"tax_amount"`
	TotalAmount    decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"total_amount"`
	PaidAmount     decimal.Decimal    `gorm:"type:decimal(15,2);not null" json:"paid_amount"`
	PaidDate       *time.Time         `json:"paid_date,omitempty"`
	Notes          *string            `gorm:"type:text" json:"notes,omitempty"`
	PaymentTerms   *string            `gorm:"size:255" json:"payment_terms,omitempty"`
	IdempotencyKey *string            `gorm:"size:255;uniqueIndex" json:"-"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	// WorkOrderIDs mirrors WorkOrders in submission order
	WorkOrderIDs []uuid.UUID `gorm:"-" json:"work_order_ids"`

	// Relationships
	Client     *Client            `gorm:"foreignKey:ClientID" json:"-"`
	Items      []InvoiceItem      `gorm:"foreignKey:InvoiceID" json:"items"`
	WorkOrders []InvoiceWorkOrder `gorm:"foreignKey:InvoiceID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new invoice
func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// AfterFind rebuilds WorkOrderIDs from the loaded link rows
func (i *Invoice) AfterFind(tx *gorm.DB) error {
	i.WorkOrderIDs = make([]uuid.UUID, len(i.WorkOrders))
	for n, link := range i.WorkOrders {
		i.WorkOrderIDs[n] = link.WorkOrderID
	}
	return nil
}

// TableName returns the table name for the Invoice model
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceItem represents a billed line. Position keeps submission order.
type InvoiceItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"-"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position    int             `gorm:"not null" json:"-"`
	Description string          `gorm:"size:500;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(15,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"tax_rate"`
}

// BeforeCreate generates a UUID before creating a new invoice item
func (it *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the InvoiceItem model
func (InvoiceItem) TableName() string {
	return "invoice_items"
}

// InvoiceWorkOrder links a work order to the single invoice that settled it.
// The unique index on WorkOrderID backs the one-invoice-per-work-order rule.
type InvoiceWorkOrder struct {
	InvoiceID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"invoice_id"`
	WorkOrderID uuid.UUID `gorm:"type:uuid;primaryKey;uniqueIndex" json:"work_order_id"`
	Position    int       `gorm:"not null" json:"-"`
}

// TableName returns the table name for the InvoiceWorkOrder model
func (InvoiceWorkOrder) TableName() string {
	return "invoice_work_orders"
}

// InvoiceCounter is the single-row sequence backing invoice numbers
type InvoiceCounter struct {
	Name      string `gorm:"size:50;primaryKey"`
	Value     int64  `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the table name for the InvoiceCounter model
func (InvoiceCounter) TableName() string {
	return "invoice_counters"
}
