package enum

import (
	"encoding/json"
	"fmt"
)

// InvoiceType represents the kind of fiscal document
type InvoiceType string

const (
	InvoiceTypeETicket    InvoiceType = "e-Ticket"
	InvoiceTypeEInvoice   InvoiceType = "e-Invoice"
	InvoiceTypeCreditNote InvoiceType = "credit-note"
	InvoiceTypeDebitNote  InvoiceType = "debit-note"
)

// legacy labels still sent by older clients
var invoiceTypeAliases = map[string]InvoiceType{
	"e-Factura":       InvoiceTypeEInvoice,
	"Nota de Crédito": InvoiceTypeCreditNote,
	"Nota de Débito":  InvoiceTypeDebitNote,
}

func (t InvoiceType) String() string {
	return string(t)
}

// Valid reports whether t is a known invoice type
func (t InvoiceType) Valid() bool {
	switch t {
	case InvoiceTypeETicket, InvoiceTypeEInvoice, InvoiceTypeCreditNote, InvoiceTypeDebitNote:
		return true
	}
	return false
}

// ParseInvoiceType accepts canonical values and legacy labels
func ParseInvoiceType(s string) (InvoiceType, error) {
	if t := InvoiceType(s); t.Valid() {
		return t, nil
	}
	if t, ok := invoiceTypeAliases[s]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown invoice type %q", s)
}

func (t *InvoiceType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseInvoiceType(str)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
