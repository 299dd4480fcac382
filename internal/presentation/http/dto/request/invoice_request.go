package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/application/service"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

// InvoiceItemRequest is one line of a create invoice request
type InvoiceItemRequest struct {
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
}

// CreateInvoiceRequest is the body of POST /invoices
type CreateInvoiceRequest struct {
	ClientID     uuid.UUID            `json:"client_id" binding:"required"`
	WorkOrderIDs []uuid.UUID          `json:"work_order_ids"`
	Items        []InvoiceItemRequest `json:"items"`
	IssueDate    *Date                `json:"issue_date"`
	DueDate      *Date                `json:"due_date"`
	InvoiceType  *enum.InvoiceType    `json:"invoice_type"`
	Notes        *string              `json:"notes"`
	PaymentTerms *string              `json:"payment_terms"`
}

// ToInput converts the request into service input
func (r *CreateInvoiceRequest) ToInput() *service.CreateInvoiceInput {
	items := make([]service.InvoiceItemInput, len(r.Items))
	for i, item := range r.Items {
		items[i] = service.InvoiceItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
		}
	}
	return &service.CreateInvoiceInput{
		ClientID:     r.ClientID,
		WorkOrderIDs: r.WorkOrderIDs,
		Items:        items,
		IssueDate:    r.IssueDate.Ptr(),
		DueDate:      r.DueDate.Ptr(),
		InvoiceType:  r.InvoiceType,
		Notes:        r.Notes,
		PaymentTerms: r.PaymentTerms,
	}
}

// UpdateInvoiceStatusRequest is the body of PUT /invoices/:id/status
type UpdateInvoiceStatusRequest struct {
	Status string `json:"status" form:"status"`
}
