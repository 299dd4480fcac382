// Package bootstrap wires the store, repositories and services shared by the
// API server and the reconcile command.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/sangkips/fieldops-api/internal/application/service"
	"github.com/sangkips/fieldops-api/internal/config"
	"github.com/sangkips/fieldops-api/internal/domain/invoice"
	domainRepo "github.com/sangkips/fieldops-api/internal/domain/repository"
	"github.com/sangkips/fieldops-api/internal/infrastructure/database"
	"github.com/sangkips/fieldops-api/internal/infrastructure/repository"
	"github.com/sangkips/fieldops-api/internal/logger"
	"gorm.io/gorm"
)

// App holds the wired services
type App struct {
	DB              *gorm.DB
	IdempotencyRepo domainRepo.IdempotencyRepository
	Clients         *service.ClientService
	WorkOrders      *service.WorkOrderService
	Invoices        *service.InvoiceService
}

// Build opens the database, migrates it, seeds the invoice counter and wires services
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(&cfg.Database, cfg.App.Debug)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return Wire(ctx, db, cfg.Invoice)
}

// Wire builds repositories and services on an open, migrated database
func Wire(ctx context.Context, db *gorm.DB, cfg config.InvoiceConfig) (*App, error) {
	clientRepo := repository.NewClientRepository(db)
	workOrderRepo := repository.NewWorkOrderRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	counterRepo := repository.NewInvoiceCounterRepository(db)

	numberer := service.NewInvoiceNumberer(counterRepo, invoiceRepo, cfg.NumberPrefix)
	if err := numberer.Seed(ctx); err != nil {
		return nil, fmt.Errorf("seed invoice counter: %w", err)
	}

	machine := invoice.NewStatusMachine(cfg.StrictTransitions)
	bootLog := logger.WithComponent("bootstrap")
	bootLog.Info().
		Str("number_prefix", cfg.NumberPrefix).
		Bool("strict_transitions", machine.Strict()).
		Msg("invoice settlement configured")

	invoices := service.NewInvoiceService(
		invoiceRepo,
		workOrderRepo,
		clientRepo,
		repository.NewTransactionManager(db),
		numberer,
		machine,
		service.InvoiceServiceOptions{
			Retry:            service.RetryPolicy{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
			ReconcileWorkers: cfg.ReconcileWorkers,
		},
	)

	return &App{
		DB:              db,
		IdempotencyRepo: repository.NewIdempotencyRepository(db),
		Clients:         service.NewClientService(clientRepo),
		WorkOrders:      service.NewWorkOrderService(workOrderRepo, clientRepo),
		Invoices:        invoices,
	}, nil
}

// Close releases the database connection pool
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
