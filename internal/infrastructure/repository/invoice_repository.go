package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/fieldops-api/internal/domain/entity"
	"github.com/sangkips/fieldops-api/internal/domain/enum"
	domainRepo "github.com/sangkips/fieldops-api/internal/domain/repository"
	"github.com/sangkips/fieldops-api/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type invoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *gorm.DB) domainRepo.InvoiceRepository {
	return &invoiceRepository{db: db}
}

// Create inserts the invoice, its items and its work order links.
// Item and link positions follow slice order.
func (r *invoiceRepository) Create(ctx context.Context, invoice *entity.Invoice) error {
	return dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(invoice).Error; err != nil {
			return err
		}

		for i := range invoice.Items {
			invoice.Items[i].InvoiceID = invoice.ID
			invoice.Items[i].Position = i
		}
		if len(invoice.Items) > 0 {
			if err := tx.Create(&invoice.Items).Error; err != nil {
				return err
			}
		}

		invoice.WorkOrders = make([]entity.InvoiceWorkOrder, len(invoice.WorkOrderIDs))
		for i, id := range invoice.WorkOrderIDs {
			invoice.WorkOrders[i] = entity.InvoiceWorkOrder{
				InvoiceID:   invoice.ID,
				WorkOrderID: id,
				Position:    i,
			}
		}
		if len(invoice.WorkOrders) > 0 {
			if err := tx.Create(&invoice.WorkOrders).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *invoiceRepository) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Invoice, error) {
	return r.first(ctx, "idempotency_key = ?", key)
}

func (r *invoiceRepository) first(ctx context.Context, query string, args ...interface{}) (*entity.Invoice, error) {
	var invoice entity.Invoice
	err := r.withChildren(dbFromContext(ctx, r.db)).
		Where(query, args...).
		First(&invoice).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter domainRepo.InvoiceFilter, params *pagination.PaginationParams) ([]entity.Invoice, int64, error) {
	var invoices []entity.Invoice
	var total int64

	query := dbFromContext(ctx, r.db).Model(&entity.Invoice{})

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := r.withChildren(query).
		Offset(params.Offset()).Limit(params.PerPage).
		Order("created_at DESC").Order("invoice_number DESC").
		Find(&invoices).Error

	return invoices, total, err
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, invoice *entity.Invoice, from enum.InvoiceStatus) (bool, error) {
	invoice.UpdatedAt = time.Now()
	result := dbFromContext(ctx, r.db).
		Model(&entity.Invoice{}).
		Where("id = ? AND status = ?", invoice.ID, from).
		Updates(map[string]interface{}{
			"status":      invoice.Status,
			"paid_date":   invoice.PaidDate,
			"paid_amount": invoice.PaidAmount,
			"updated_at":  invoice.UpdatedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *invoiceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := dbFromContext(ctx, r.db).Model(&entity.Invoice{}).Count(&count).Error
	return count, err
}

func (r *invoiceRepository) withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("WorkOrders", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})
}

type invoiceCounterRepository struct {
	db *gorm.DB
}

// NewInvoiceCounterRepository creates a new invoice counter repository
func NewInvoiceCounterRepository(db *gorm.DB) domainRepo.InvoiceCounterRepository {
	return &invoiceCounterRepository{db: db}
}

func (r *invoiceCounterRepository) Seed(ctx context.Context, name string, value int64) error {
	return dbFromContext(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.InvoiceCounter{Name: name, Value: value}).Error
}

// Increment bumps the counter in place and reads it back in the same transaction.
// The row lock taken by the update keeps concurrent callers apart.
func (r *invoiceCounterRepository) Increment(ctx context.Context, name string) (int64, error) {
	var counter entity.InvoiceCounter
	err := dbFromContext(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.InvoiceCounter{}).
			Where("name = ?", name).
			Updates(map[string]interface{}{
				"value":      gorm.Expr("value + ?", 1),
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&counter, "name = ?", name).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, errors.New("invoice counter " + name + " is not seeded")
	}
	return counter.Value, err
}
