package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/application/service"
	"github.com/sangkips/fieldops-api/internal/domain/entity"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	"github.com/sangkips/fieldops-api/internal/domain/invoice"
	domainRepo "github.com/sangkips/fieldops-api/internal/domain/repository"
	"github.com/sangkips/fieldops-api/internal/infrastructure/database"
	"github.com/sangkips/fieldops-api/internal/infrastructure/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testClock starts on 2026-03-14 and advances one minute per reading
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type testEnv struct {
	db            *gorm.DB
	invoiceRepo   domainRepo.InvoiceRepository
	workOrderRepo domainRepo.WorkOrderRepository
	clientRepo    domainRepo.ClientRepository
	numberer      *service.InvoiceNumberer
	invoices      *service.InvoiceService
	workOrders    *service.WorkOrderService
	clients       *service.ClientService
}

func newTestEnv(t *testing.T, strict bool) *testEnv {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:", false)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	env := &testEnv{
		db:            db,
		invoiceRepo:   repository.NewInvoiceRepository(db),
		workOrderRepo: repository.NewWorkOrderRepository(db),
		clientRepo:    repository.NewClientRepository(db),
	}
	env.numberer = service.NewInvoiceNumberer(repository.NewInvoiceCounterRepository(db), env.invoiceRepo, "A")
	require.NoError(t, env.numberer.Seed(context.Background()))

	env.invoices = service.NewInvoiceService(
		env.invoiceRepo,
		env.workOrderRepo,
		env.clientRepo,
		repository.NewTransactionManager(db),
		env.numberer,
		invoice.NewStatusMachine(strict),
		service.InvoiceServiceOptions{
			Retry:            service.RetryPolicy{Attempts: 3, Delay: time.Millisecond},
			ReconcileWorkers: 3,
			Now:              newTestClock().Now,
		},
	)
	env.workOrders = service.NewWorkOrderService(env.workOrderRepo, env.clientRepo)
	env.clients = service.NewClientService(env.clientRepo)
	return env
}

func (e *testEnv) client(t *testing.T) *entity.Client {
	t.Helper()
	client, err := e.clients.CreateClient(context.Background(), &service.CreateClientInput{
		Name:         "C1",
		TaxID:        "211234560018",
		BusinessName: "C1 S.A.",
		Address:      "Av. Italia 1234",
	})
	require.NoError(t, err)
	return client
}

func (e *testEnv) completedWorkOrder(t *testing.T, clientID uuid.UUID) *entity.WorkOrder {
	t.Helper()
	status := enum.WorkOrderStatusCompleted
	workOrder, err := e.workOrders.CreateWorkOrder(context.Background(), &service.CreateWorkOrderInput{
		ClientID: clientID,
		Title:    "Boiler maintenance",
		Status:   &status,
	})
	require.NoError(t, err)
	return workOrder
}

func (e *testEnv) reloadWorkOrder(t *testing.T, id uuid.UUID) *entity.WorkOrder {
	t.Helper()
	workOrder, err := e.workOrderRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, workOrder)
	return workOrder
}

func (e *testEnv) invoiceCount(t *testing.T) int64 {
	t.Helper()
	count, err := e.invoiceRepo.Count(context.Background())
	require.NoError(t, err)
	return count
}

func laborItem() service.InvoiceItemInput {
	rate := decimal.NewFromInt(22)
	return service.InvoiceItemInput{
		Description: "Labor",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.NewFromInt(100),
		TaxRate:     &rate,
	}
}

func settle(clientID uuid.UUID, workOrderIDs ...uuid.UUID) *service.CreateInvoiceInput {
	return &service.CreateInvoiceInput{
		ClientID:     clientID,
		WorkOrderIDs: workOrderIDs,
		Items:        []service.InvoiceItemInput{laborItem()},
	}
}
