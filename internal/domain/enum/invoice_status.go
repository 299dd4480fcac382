package enum

import (
	"encoding/json"
	"fmt"
)

// InvoiceStatus represents the fiscal lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft        InvoiceStatus = "draft"
	InvoiceStatusPendingDGI   InvoiceStatus = "pending_dgi"
	InvoiceStatusValidatedDGI InvoiceStatus = "validated_dgi"
	InvoiceStatusSent         InvoiceStatus = "sent"
	InvoiceStatusPaid         InvoiceStatus = "paid"
	InvoiceStatusCancelled    InvoiceStatus = "cancelled"
)

// InvoiceStatusFlow is the happy path in order; cancelled is off the path
var InvoiceStatusFlow = []InvoiceStatus{
	InvoiceStatusDraft,
	InvoiceStatusPendingDGI,
	InvoiceStatusValidatedDGI,
	InvoiceStatusSent,
	InvoiceStatusPaid,
}

func (s InvoiceStatus) String() string {
	return string(s)
}

// Valid reports whether s is a known invoice status
func (s InvoiceStatus) Valid() bool {
	return s == InvoiceStatusCancelled || s.Step() >= 0
}

// Step returns the position of s on the happy path, or -1 when it is not on it
func (s InvoiceStatus) Step() int {
	for i, st := range InvoiceStatusFlow {
		if st == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether no further transition may leave s
func (s InvoiceStatus) Terminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

func (s *InvoiceStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	status := InvoiceStatus(str)
	if !status.Valid() {
		return fmt.Errorf("unknown invoice status %q", str)
	}
	*s = status
	return nil
}
