// Package invoice holds the pure invoicing rules: totals and status sequencing.
package invoice

import (
	"fmt"
	"strings"

	"github.com/sangkips/fieldops-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

var hundred = decimal.NewFromInt(100)

// LineItem is a billed line as submitted by the caller
type LineItem struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // percent
}

// Totals are the frozen amounts of an invoice
type Totals struct {
	Subtotal    decimal.Decimal
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal
}

// Calculate sums the items exactly and rounds subtotal and tax once at the end.
// TotalAmount is always Subtotal + TaxAmount.
func Calculate(items []LineItem) (Totals, error) {
	if fieldErrors := Validate(items); len(fieldErrors) > 0 {
		return Totals{}, apperror.NewValidationError(fieldErrors)
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	for _, item := range items {
		line := item.Quantity.Mul(item.UnitPrice)
		subtotal = subtotal.Add(line)
		tax = tax.Add(line.Mul(item.TaxRate).Div(hundred))
	}

	subtotal = subtotal.Round(moneyPlaces)
	tax = tax.Round(moneyPlaces)

	return Totals{
		Subtotal:    subtotal,
		TaxAmount:   tax,
		TotalAmount: subtotal.Add(tax),
	}, nil
}

// Validate returns one field error per offending item attribute
func Validate(items []LineItem) []apperror.FieldError {
	if len(items) == 0 {
		return []apperror.FieldError{{Field: "items", Message: "at least one item is required"}}
	}

	var errs []apperror.FieldError
	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			errs = append(errs, fieldError(i, "description", "is required"))
		}
		if !item.Quantity.IsPositive() {
			errs = append(errs, fieldError(i, "quantity", "must be greater than 0"))
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, fieldError(i, "unit_price", "must not be negative"))
		}
		if item.TaxRate.IsNegative() {
			errs = append(errs, fieldError(i, "tax_rate", "must not be negative"))
		}
	}
	return errs
}

func fieldError(index int, field, message string) apperror.FieldError {
	return apperror.FieldError{
		Field:   fmt.Sprintf("items[%d].%s", index, field),
		Message: message,
	}
}
