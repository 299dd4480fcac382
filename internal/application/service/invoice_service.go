package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sangkips/fieldops-api/internal/domain/entity"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"github.com/sangkips/fieldops-api/internal/domain/invoice"
	"github.com/sangkips/fieldops-api/internal/domain/repository"
	"github.com/sangkips/fieldops-api/internal/logger"
	"github.com/sangkips/fieldops-api/pkg/apperror"
	"github.com/sangkips/fieldops-api/pkg/pagination"
	"github.com/shopspring/decimal"
)

// InvoiceServiceOptions tunes the invoice service
type InvoiceServiceOptions struct {
	Retry            RetryPolicy
	ReconcileWorkers int
	// Now is the clock used for issue dates, invoice years and payment stamps
	Now func() time.Time
}

// InvoiceService settles work orders into invoices and drives invoice status
type InvoiceService struct {
	invoiceRepo   repository.InvoiceRepository
	workOrderRepo repository.WorkOrderRepository
	clientRepo    repository.ClientRepository
	txManager     repository.TransactionManager
	numberer      *InvoiceNumberer
	machine       *invoice.StatusMachine
	retry         RetryPolicy
	workers       int
	now           func() time.Time
	log           zerolog.Logger
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	workOrderRepo repository.WorkOrderRepository,
	clientRepo repository.ClientRepository,
	txManager repository.TransactionManager,
	numberer *InvoiceNumberer,
	machine *invoice.StatusMachine,
	opts InvoiceServiceOptions,
) *InvoiceService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ReconcileWorkers < 1 {
		opts.ReconcileWorkers = 4
	}
	return &InvoiceService{
		invoiceRepo:   invoiceRepo,
		workOrderRepo: workOrderRepo,
		clientRepo:    clientRepo,
		txManager:     txManager,
		numberer:      numberer,
		machine:       machine,
		retry:         opts.Retry,
		workers:       opts.ReconcileWorkers,
		now:           opts.Now,
		log:           logger.WithComponent("invoice_service"),
	}
}

// InvoiceItemInput represents one submitted line item
type InvoiceItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxRate     *decimal.Decimal // defaults to entity.DefaultTaxRate
}

// CreateInvoiceInput represents the create invoice input
type CreateInvoiceInput struct {
	ClientID       uuid.UUID
	WorkOrderIDs   []uuid.UUID
	Items          []InvoiceItemInput
	IssueDate      *time.Time
	DueDate        *time.Time
	InvoiceType    *enum.InvoiceType
	Notes          *string
	PaymentTerms   *string
	IdempotencyKey *string
}

// CreateInvoice settles the given work orders into a new invoice.
//
// Client and work orders are checked before anything is written. Numbering,
// the invoice insert and the work order flags share one transaction, so a
// lost race on any work order leaves no invoice behind and consumes no number.
// A repeated idempotency key returns the invoice created the first time.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input *CreateInvoiceInput) (*entity.Invoice, error) {
	key := idempotencyKey(input.IdempotencyKey)
	if key != nil {
		existing, err := s.findByIdempotencyKey(ctx, *key)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return s.resumeSettlement(ctx, existing)
		}
	}

	workOrderIDs := dedupeIDs(input.WorkOrderIDs)

	err := s.retry.Do(ctx, func() error {
		return s.checkSettleable(ctx, input.ClientID, workOrderIDs)
	})
	if err != nil {
		if existing := s.raceWinner(ctx, key, err); existing != nil {
			return s.resumeSettlement(ctx, existing)
		}
		return nil, err
	}

	items, lineItems := buildItems(input.Items)
	totals, err := invoice.Calculate(lineItems)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &entity.Invoice{
		ID:             uuid.New(),
		ClientID:       input.ClientID,
		IssueDate:      dateOnly(now),
		DueDate:        input.DueDate,
		InvoiceType:    enum.InvoiceTypeETicket,
		Status:         enum.InvoiceStatusDraft,
		Subtotal:       totals.Subtotal,
		TaxAmount:      totals.TaxAmount,
		TotalAmount:    totals.TotalAmount,
		PaidAmount:     decimal.Zero,
		Notes:          input.Notes,
		PaymentTerms:   input.PaymentTerms,
		IdempotencyKey: key,
		Items:          items,
		WorkOrderIDs:   workOrderIDs,
	}
	if input.IssueDate != nil {
		inv.IssueDate = *input.IssueDate
	}
	if input.InvoiceType != nil {
		inv.InvoiceType = *input.InvoiceType
	}

	err = s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		number, err := s.numberer.Next(ctx, now.Year())
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number

		// Claim every work order before the link rows are written, so a
		// concurrent settlement surfaces as already invoiced.
		for _, id := range workOrderIDs {
			if err := s.markInvoiced(ctx, id, inv.ID); err != nil {
				return err
			}
		}

		return storeErr(s.invoiceRepo.Create(ctx, inv))
	})
	if err != nil {
		if existing := s.raceWinner(ctx, key, err); existing != nil {
			return s.resumeSettlement(ctx, existing)
		}
		s.log.Warn().Err(err).Str("client_id", input.ClientID.String()).Msg("invoice settlement failed")
		return nil, err
	}

	s.log.Info().
		Str("invoice_id", inv.ID.String()).
		Str("invoice_number", inv.InvoiceNumber).
		Int("work_orders", len(workOrderIDs)).
		Str("total_amount", inv.TotalAmount.StringFixed(2)).
		Msg("invoice created")

	return inv, nil
}

// checkSettleable verifies the client and every work order in submission order
func (s *InvoiceService) checkSettleable(ctx context.Context, clientID uuid.UUID, workOrderIDs []uuid.UUID) error {
	client, err := s.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return storeErr(err)
	}
	if client == nil {
		return apperror.NewNotFoundError("Client")
	}

	for _, id := range workOrderIDs {
		workOrder, err := s.workOrderRepo.GetByID(ctx, id)
		if err != nil {
			return storeErr(err)
		}
		if workOrder == nil {
			return apperror.NewNotFoundError(fmt.Sprintf("Work order %s", id))
		}
		if workOrder.Invoiced {
			return apperror.NewAlreadyInvoicedError(id.String())
		}
	}
	return nil
}

// raceWinner returns the invoice of a concurrent request with the same
// idempotency key. Losing that race shows up as an already invoiced work order
// or as a unique key violation.
func (s *InvoiceService) raceWinner(ctx context.Context, key *string, err error) *entity.Invoice {
	if key == nil {
		return nil
	}
	if !apperror.IsKind(err, apperror.KindStore) && !apperror.HasReason(err, apperror.ReasonAlreadyInvoiced) {
		return nil
	}
	existing, findErr := s.findByIdempotencyKey(ctx, *key)
	if findErr != nil {
		return nil
	}
	return existing
}

// resumeSettlement flags the work orders of an existing invoice that are not flagged yet
func (s *InvoiceService) resumeSettlement(ctx context.Context, inv *entity.Invoice) (*entity.Invoice, error) {
	err := s.txManager.RunInTx(ctx, func(ctx context.Context) error {
		for _, id := range inv.WorkOrderIDs {
			if err := s.markInvoiced(ctx, id, inv.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_id", inv.ID.String()).
		Str("invoice_number", inv.InvoiceNumber).
		Msg("idempotent replay of invoice creation")
	return inv, nil
}

func (s *InvoiceService) markInvoiced(ctx context.Context, workOrderID, invoiceID uuid.UUID) error {
	err := s.workOrderRepo.MarkInvoiced(ctx, workOrderID, invoiceID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrWorkOrderAlreadyInvoiced):
		return apperror.NewAlreadyInvoicedError(workOrderID.String())
	case errors.Is(err, repository.ErrWorkOrderNotFound):
		return apperror.NewNotFoundError(fmt.Sprintf("Work order %s", workOrderID))
	default:
		return storeErr(err)
	}
}

func (s *InvoiceService) findByIdempotencyKey(ctx context.Context, key string) (*entity.Invoice, error) {
	var inv *entity.Invoice
	err := s.retry.Do(ctx, func() error {
		found, err := s.invoiceRepo.GetByIdempotencyKey(ctx, key)
		inv = found
		return storeErr(err)
	})
	return inv, err
}

// GetInvoice retrieves an invoice by ID
func (s *InvoiceService) GetInvoice(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	var inv *entity.Invoice
	err := s.retry.Do(ctx, func() error {
		found, err := s.invoiceRepo.GetByID(ctx, id)
		inv = found
		return storeErr(err)
	})
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	return inv, nil
}

// ListInvoices lists invoices matching the filter
func (s *InvoiceService) ListInvoices(ctx context.Context, filter repository.InvoiceFilter, params *pagination.PaginationParams) (*pagination.PaginatedResult[entity.Invoice], error) {
	invoices, total, err := s.invoiceRepo.List(ctx, filter, params)
	if err != nil {
		return nil, storeErr(err)
	}

	pag := pagination.NewPagination(params.Page, params.PerPage, total)
	return pagination.NewPaginatedResult(invoices, pag), nil
}

// UpdateStatus moves an invoice to status.
// Paying stamps paid_date and sets paid_amount to the total. Repeating the
// current status changes nothing. The write only lands if the stored status
// is still the one the transition was checked against; otherwise the invoice
// is re-read and checked again.
func (s *InvoiceService) UpdateStatus(ctx context.Context, id uuid.UUID, status enum.InvoiceStatus) (*entity.Invoice, error) {
	if !status.Valid() {
		return nil, apperror.NewValidationError([]apperror.FieldError{
			{Field: "status", Message: "unknown invoice status " + status.String()},
		})
	}

	attempts := s.retry.Attempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		inv, err := s.GetInvoice(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.machine.Check(inv.Status, status); err != nil {
			return nil, err
		}
		if inv.Status == status {
			return inv, nil
		}

		from := inv.Status
		inv.Status = status
		if status == enum.InvoiceStatusPaid {
			paidAt := s.now()
			inv.PaidDate = &paidAt
			inv.PaidAmount = inv.TotalAmount
		}

		updated, err := s.invoiceRepo.UpdateStatus(ctx, inv, from)
		if err != nil {
			return nil, storeErr(err)
		}
		if updated {
			s.log.Info().
				Str("invoice_id", inv.ID.String()).
				Str("from", from.String()).
				Str("to", status.String()).
				Msg("invoice status updated")
			return inv, nil
		}

		s.log.Debug().Str("invoice_id", id.String()).Int("attempt", attempt+1).Msg("invoice status changed concurrently, re-reading")
	}

	return nil, apperror.NewConflictError("Invoice status changed concurrently")
}

func buildItems(inputs []InvoiceItemInput) ([]entity.InvoiceItem, []invoice.LineItem) {
	items := make([]entity.InvoiceItem, len(inputs))
	lineItems := make([]invoice.LineItem, len(inputs))
	for i, in := range inputs {
		rate := entity.DefaultTaxRate
		if in.TaxRate != nil {
			rate = *in.TaxRate
		}
		items[i] = entity.InvoiceItem{
			Position:    i,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TaxRate:     rate,
		}
		lineItems[i] = invoice.LineItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TaxRate:     rate,
		}
	}
	return items, lineItems
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func idempotencyKey(key *string) *string {
	if key == nil || *key == "" {
		return nil
	}
	return key
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
