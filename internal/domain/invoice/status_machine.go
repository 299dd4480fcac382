package invoice

import (
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"github.com/sangkips/fieldops-api/pkg/apperror"
)

// StatusMachine decides which invoice status changes are allowed.
// Strict mode only allows the next step of the flow or cancellation.
// Permissive mode also allows skipping forward.
type StatusMachine struct {
	strict bool
}

// NewStatusMachine creates a status machine
func NewStatusMachine(strict bool) *StatusMachine {
	return &StatusMachine{strict: strict}
}

// Strict reports the configured mode
func (m *StatusMachine) Strict() bool {
	return m.strict
}

// Check returns nil when moving from -> to is allowed. Same-state moves are allowed.
func (m *StatusMachine) Check(from, to enum.InvoiceStatus) error {
	if !to.Valid() {
		return apperror.NewValidationError([]apperror.FieldError{
			{Field: "status", Message: "unknown invoice status " + string(to)},
		})
	}
	if !from.Valid() {
		return apperror.NewInvalidTransitionError(from.String(), to.String())
	}
	if from == to {
		return nil
	}
	if from.Terminal() {
		return apperror.NewInvalidTransitionError(from.String(), to.String())
	}
	if to == enum.InvoiceStatusCancelled {
		return nil
	}

	step := to.Step() - from.Step()
	if step == 1 || (!m.strict && step > 1) {
		return nil
	}
	return apperror.NewInvalidTransitionError(from.String(), to.String())
}
