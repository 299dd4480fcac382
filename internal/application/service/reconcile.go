package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/domain/entity"
	"github.com/sangkips/fieldops-api/internal/domain/repository"
	"github.com/sangkips/fieldops-api/pkg/pagination"
	"golang.org/x/sync/errgroup"
)

const reconcilePageSize = 100

// ReconcileOptions controls a reconciliation sweep
type ReconcileOptions struct {
	DryRun  bool
	Workers int // defaults to the configured worker count
}

// ReconcileFinding is a work order listed on an invoice that could not be repaired
type ReconcileFinding struct {
	InvoiceID     uuid.UUID  `json:"invoice_id"`
	InvoiceNumber string     `json:"invoice_number"`
	WorkOrderID   uuid.UUID  `json:"work_order_id"`
	HeldBy        *uuid.UUID `json:"held_by,omitempty"`
}

// ReconcileReport summarises a sweep. In a dry run Repaired counts what would be repaired.
type ReconcileReport struct {
	DryRun    bool               `json:"dry_run"`
	Scanned   int                `json:"scanned"`
	Repaired  int                `json:"repaired"`
	Failed    int                `json:"failed"`
	Conflicts []ReconcileFinding `json:"conflicts"`
	Missing   []ReconcileFinding `json:"missing"`
}

// ReconcileWorkOrders scans every invoice and flags listed work orders that are
// not flagged yet. Work orders missing or held by another invoice are reported,
// never changed.
func (s *InvoiceService) ReconcileWorkOrders(ctx context.Context, opts ReconcileOptions) (*ReconcileReport, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = s.workers
	}

	report := &ReconcileReport{
		DryRun:    opts.DryRun,
		Conflicts: []ReconcileFinding{},
		Missing:   []ReconcileFinding{},
	}
	var mu sync.Mutex

	// Go blocks while workers jobs are running, which paces the page feed.
	// Failed invoices are counted, not returned, so one failure never stops the sweep.
	var group errgroup.Group
	group.SetLimit(workers)

	err := s.feedInvoices(ctx, func(inv entity.Invoice) {
		group.Go(func() error {
			result, err := s.reconcileInvoice(ctx, inv, opts.DryRun)
			mu.Lock()
			report.Scanned++
			report.Repaired += result.repaired
			report.Conflicts = append(report.Conflicts, result.conflicts...)
			report.Missing = append(report.Missing, result.missing...)
			if err != nil {
				report.Failed++
			}
			mu.Unlock()
			if err != nil {
				s.log.Error().Err(err).Str("invoice_id", inv.ID.String()).Msg("reconcile invoice failed")
			}
			return nil
		})
	})
	_ = group.Wait()
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Bool("dry_run", opts.DryRun).
		Int("scanned", report.Scanned).
		Int("repaired", report.Repaired).
		Int("conflicts", len(report.Conflicts)).
		Int("missing", len(report.Missing)).
		Int("failed", report.Failed).
		Msg("work order reconciliation completed")

	return report, nil
}

func (s *InvoiceService) feedInvoices(ctx context.Context, each func(entity.Invoice)) error {
	params := &pagination.PaginationParams{Page: 1, PerPage: reconcilePageSize}
	for {
		var page []entity.Invoice
		var total int64
		err := s.retry.Do(ctx, func() error {
			var err error
			page, total, err = s.invoiceRepo.List(ctx, repository.InvoiceFilter{}, params)
			return storeErr(err)
		})
		if err != nil {
			return err
		}

		for _, inv := range page {
			if err := ctx.Err(); err != nil {
				return err
			}
			each(inv)
		}

		if len(page) < params.PerPage || int64(params.Page*params.PerPage) >= total {
			return nil
		}
		params.Page++
	}
}

type invoiceReconcileResult struct {
	repaired  int
	conflicts []ReconcileFinding
	missing   []ReconcileFinding
}

func (s *InvoiceService) reconcileInvoice(ctx context.Context, inv entity.Invoice, dryRun bool) (invoiceReconcileResult, error) {
	var result invoiceReconcileResult
	for _, id := range inv.WorkOrderIDs {
		finding := ReconcileFinding{InvoiceID: inv.ID, InvoiceNumber: inv.InvoiceNumber, WorkOrderID: id}

		workOrder, err := s.workOrderRepo.GetByID(ctx, id)
		if err != nil {
			return result, storeErr(err)
		}
		switch {
		case workOrder == nil:
			result.missing = append(result.missing, finding)
			continue
		case workOrder.Invoiced && workOrder.InvoiceID != nil && *workOrder.InvoiceID == inv.ID:
			continue
		case workOrder.Invoiced:
			finding.HeldBy = workOrder.InvoiceID
			result.conflicts = append(result.conflicts, finding)
			continue
		}

		if dryRun {
			result.repaired++
			continue
		}

		err = s.workOrderRepo.MarkInvoiced(ctx, id, inv.ID)
		switch {
		case err == nil:
			result.repaired++
			s.log.Info().Str("invoice_id", inv.ID.String()).Str("work_order_id", id.String()).Msg("work order flag repaired")
		case errors.Is(err, repository.ErrWorkOrderAlreadyInvoiced):
			result.conflicts = append(result.conflicts, finding)
		case errors.Is(err, repository.ErrWorkOrderNotFound):
			result.missing = append(result.missing, finding)
		default:
			return result, storeErr(err)
		}
	}
	return result, nil
}
