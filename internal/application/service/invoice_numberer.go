package service

import (
	"context"
	"fmt"

	"github.com/sangkips/fieldops-api/internal/domain/repository"
)

// InvoiceCounterName is the counter row backing invoice numbers
const InvoiceCounterName = "invoice_number"

// InvoiceNumberer issues invoice numbers of the form PREFIX-YEAR-00001.
// The sequence is global across years.
type InvoiceNumberer struct {
	counterRepo repository.InvoiceCounterRepository
	invoiceRepo repository.InvoiceRepository
	prefix      string
}

// NewInvoiceNumberer creates a new invoice numberer
func NewInvoiceNumberer(counterRepo repository.InvoiceCounterRepository, invoiceRepo repository.InvoiceRepository, prefix string) *InvoiceNumberer {
	if prefix == "" {
		prefix = "A"
	}
	return &InvoiceNumberer{
		counterRepo: counterRepo,
		invoiceRepo: invoiceRepo,
		prefix:      prefix,
	}
}

// Seed starts the counter at the number of invoices already stored.
// It does nothing once the counter exists.
func (n *InvoiceNumberer) Seed(ctx context.Context) error {
	count, err := n.invoiceRepo.Count(ctx)
	if err != nil {
		return storeErr(err)
	}
	return storeErr(n.counterRepo.Seed(ctx, InvoiceCounterName, count))
}

// Next consumes one sequence value. Called inside a transaction, the value is
// released again if the transaction rolls back.
func (n *InvoiceNumberer) Next(ctx context.Context, year int) (string, error) {
	seq, err := n.counterRepo.Increment(ctx, InvoiceCounterName)
	if err != nil {
		return "", storeErr(err)
	}
	return Format(n.prefix, year, seq), nil
}

// Format renders an invoice number
func Format(prefix string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", prefix, year, seq)
}
