package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sangkips/fieldops-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
)

func TestAlreadyInvoicedError(t *testing.T) {
	err := apperror.NewAlreadyInvoicedError("wo-1")

	assert.Equal(t, http.StatusBadRequest, err.Code)
	assert.Equal(t, apperror.KindConflict, err.Kind)
	assert.Equal(t, apperror.ReasonAlreadyInvoiced, err.Reason)
	assert.Contains(t, err.Error(), "wo-1")
}

func TestIsKindFollowsWrapping(t *testing.T) {
	wrapped := fmt.Errorf("create invoice: %w", apperror.NewNotFoundError("Client"))

	assert.True(t, apperror.IsKind(wrapped, apperror.KindNotFound))
	assert.False(t, apperror.IsKind(wrapped, apperror.KindConflict))
	assert.False(t, apperror.IsKind(errors.New("plain"), apperror.KindNotFound))
}

func TestOnlyStoreErrorsAreRetryable(t *testing.T) {
	cause := errors.New("connection reset")
	storeErr := apperror.NewStoreError(cause)

	assert.True(t, apperror.IsRetryable(storeErr))
	assert.ErrorIs(t, storeErr, cause)
	assert.False(t, apperror.IsRetryable(apperror.NewValidationError(nil)))
	assert.False(t, apperror.IsRetryable(apperror.NewInvalidTransitionError("paid", "draft")))
}

func TestGetAppErrorHidesUnknownErrors(t *testing.T) {
	appErr := apperror.GetAppError(errors.New("pq: relation does not exist"))

	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.Equal(t, "Internal server error", appErr.Message)
}

func TestHasReason(t *testing.T) {
	wrapped := fmt.Errorf("settle: %w", apperror.NewAlreadyInvoicedError("wo-1"))

	assert.True(t, apperror.HasReason(wrapped, apperror.ReasonAlreadyInvoiced))
	assert.False(t, apperror.HasReason(apperror.NewConflictError("busy"), apperror.ReasonAlreadyInvoiced))
	assert.False(t, apperror.HasReason(errors.New("plain"), apperror.ReasonAlreadyInvoiced))
}
