package service_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/application/service"
	"github.com/sangkips/fieldops-api/internal/domain/entity"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"github.com/sangkips/fieldops-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateInvoiceSettlesWorkOrder(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	client := env.client(t)
	w1 := env.completedWorkOrder(t, client.ID)

	inv, err := env.invoices.CreateInvoice(ctx, settle(client.ID, w1.ID))
	require.NoError(t, err)

	assert.Equal(t, "A-2026-00001", inv.InvoiceNumber)
	assert.Equal(t, enum.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, enum.InvoiceTypeETicket, inv.InvoiceType)
	assert.True(t, inv.Subtotal.Equal(decimal.NewFromInt(200)))
	assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(44)))
	assert.True(t, inv.TotalAmount.Equal(decimal.NewFromInt(244)))
	assert.True(t, inv.PaidAmount.IsZero())

	reloaded := env.reloadWorkOrder(t, w1.ID)
	assert.True(t, reloaded.Invoiced)
	require.NotNil(t, reloaded.InvoiceID)
	assert.Equal(t, inv.ID, *reloaded.InvoiceID)

	stored, err := env.invoices.GetInvoice(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{w1.ID}, stored.WorkOrderIDs)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "Labor", stored.Items[0].Description)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(244)))
}

func TestCreateInvoiceTwiceForSameWorkOrderConflicts(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	client := env.client(t)
	w1 := env.completedWorkOrder(t, client.ID)

	first, err := env.invoices.CreateInvoice(ctx, settle(client.ID, w1.ID))
	require.NoError(t, err)

	_, err = env.invoices.CreateInvoice(ctx, settle(client.ID, w1.ID))
	require.Error(t, err)
	appErr := apperror.GetAppError(err)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, apperror.ReasonAlreadyInvoiced, appErr.Reason)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)

	assert.Equal(t, int64(1), env.invoiceCount(t))
	reloaded := env.reloadWorkOrder(t, w1.ID)
	assert.Equal(t, first.ID, *reloaded.InvoiceID)
}

func TestCreateInvoiceWithMissingWorkOrderWritesNothing(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	client := env.client(t)
	w1 := env.completedWorkOrder(t, client.ID)
	missing := uuid.New()

	_, err := env.invoices.CreateInvoice(ctx, settle(client.ID, w1.ID, missing))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	assert.Contains(t, err.Error(), missing.String())

	assert.Equal(t, int64(0), env.invoiceCount(t))
	assert.False(t, env.reloadWorkOrder(t, w1.ID).Invoiced)
}

func TestCreateInvoiceRequiresClient(t *testing.T) {
	env := newTestEnv(t, true)

	_, err := env.invoices.CreateInvoice(context.Background(), settle(uuid.New()))
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindNotFound))
	assert.Equal(t, "Client not found", err.Error())
}

func TestCreateInvoiceRejectsInvalidItemsBeforeWriting(t *testing.T) {
	env := newTestEnv(t, true)
	client := env.client(t)
	w1 := env.completedWorkOrder(t, client.ID)

	input := settle(client.ID, w1.ID)
	input.Items[0].Quantity = decimal.Zero

	_, err := env.invoices.CreateInvoice(context.Background(), input)
	require.Error(t, err)
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
	assert.Equal(t, int64(0), env.invoiceCount(t))
	assert.False(t, env.reloadWorkOrder(t, w1.ID).Invoiced)
}

func TestCreateInvoiceDefaultsTaxRateAndDedupesWorkOrders(t *testing.T) {
	env := newTestEnv(t, true)
	client := env.client(t)
	w1 := env.completedWorkOrder(t, client.ID)
	w2 := env.completedWorkOrder(t, client.ID)

	input := settle(client.ID, w2.ID, w1.ID, w2.ID)
	input.Items[0].TaxRate = nil
	invoiceType := enum.InvoiceTypeEInvoice
	input.InvoiceType = &invoiceType

	inv, err := env.invoices.CreateInvoice(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{w2.ID, w1.ID}, inv.WorkOrderIDs)
	assert.True(t, inv.Items[0].TaxRate.Equal(entity.DefaultTaxRate))
	assert.Equal(t, enum.InvoiceTypeEInvoice, inv.InvoiceType)
	assert.True(t, inv.TaxAmount.Equal(decimal.NewFromInt(44)))
}

func TestConcurrentInvoiceNumbersAreDistinct(t *testing.T) {
	env := newTestEnv(t, true)
	client := env.client(t)

	const n = 12
	workOrders := make([]*entity.WorkOrder, n)
	for i := range workOrders {
		workOrders[i] = env.completedWorkOrder(t, client.ID)
	}

	numbers := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv, err := env.invoices.CreateInvoice(context.Background(), settle(client.ID, workOrders[i].ID))
			errs[i] = err
			if err == nil {
				numbers[i] = inv.InvoiceNumber
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.False(t, seen[numbers[i]], "duplicate invoice number %s", numbers[i])
		seen[numbers[i]] = true
	}
	for seq := int64(1); seq <= n; seq++ {
		assert.True(t, seen[service.Format("A", 2026, seq)])
	}
}

func TestConcurrentSettlementOfOneWorkOrderHasOneWinner(t *testing.T) {
	env := newTestEnv(t, true)
	client := env.client(t)
	w1 := env.completedWorkOrder(t, client.ID)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.invoices.CreateInvoice(context.Background(), settle(client.ID, w1.ID))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperror.IsKind(err, apperror.KindConflict), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, int64(1), env.invoiceCount(t))

	// losers rolled back their numbers
	w2 := env.completedWorkOrder(t, client.ID)
	next, err := env.invoices.CreateInvoice(context.Background(), settle(client.ID, w2.ID))
	require.NoError(t, err)
	assert.Equal(t, "A-2026-00002", next.InvoiceNumber)
}

func TestSeedContinuesFromExistingInvoices(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	client := env.client(t)

	_, err := env.invoices.CreateInvoice(ctx, settle(client.ID, env.completedWorkOrder(t, client.ID).ID))
	require.NoError(t, err)

	// a second seed must not reset the counter
	require.NoError(t, env.numberer.Seed(ctx))

	inv, err := env.invoices.CreateInvoice(ctx, settle(client.ID, env.completedWorkOrder(t, client.ID).ID))
	require.NoError(t, err)
	assert.Equal(t, "A-2026-00002", inv.InvoiceNumber)
}

func TestIdempotencyKeyReturnsFirstInvoice(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	client := env.client(t)
	w1 := env.completedWorkOrder(t, client.ID)

	key := "settle-w1"
	input := settle(client.ID, w1.ID)
	input.IdempotencyKey = &key

	first, err := env.invoices.CreateInvoice(ctx, input)
	require.NoError(t, err)
	second, err := env.invoices.CreateInvoice(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.InvoiceNumber, second.InvoiceNumber)
	assert.Equal(t, int64(1), env.invoiceCount(t))
}

func TestIdempotencyKeyResumesUnflaggedWorkOrders(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	client := env.client(t)
	w1 := env.completedWorkOrder(t, client.ID)
	w2 := env.completedWorkOrder(t, client.ID)

	key := "settle-w1-w2"
	input := settle(client.ID, w1.ID, w2.ID)
	input.IdempotencyKey = &key

	inv, err := env.invoices.CreateInvoice(ctx, input)
	require.NoError(t, err)

	// simulate a flag write that never landed
	require.NoError(t, env.db.Model(&entity.WorkOrder{}).Where("id = ?", w2.ID).
		Updates(map[string]interface{}{"invoiced": false, "invoice_id": nil}).Error)

	replay, err := env.invoices.CreateInvoice(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, replay.ID)

	reloaded := env.reloadWorkOrder(t, w2.ID)
	assert.True(t, reloaded.Invoiced)
	assert.Equal(t, inv.ID, *reloaded.InvoiceID)
	assert.Equal(t, int64(1), env.invoiceCount(t))
}
