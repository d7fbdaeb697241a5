package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tejit/billing/internal/domain/billing"
	"github.com/tejit/billing/internal/domain/shared"
	"github.com/tejit/billing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements billing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db           *gorm.DB
	numberPrefix string
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB, numberPrefix string) *GormInvoiceRepository {
	if numberPrefix == "" {
		numberPrefix = billing.DefaultNumberPrefix
	}
	return &GormInvoiceRepository{db: db, numberPrefix: numberPrefix}
}

// Create allocates the invoice's sequence number and inserts the invoice and
// its line items in one transaction. The sequence increment holds its row
// lock until commit, so concurrent creates for the same (client, period)
// serialize and can never share a number.
func (r *GormInvoiceRepository) Create(ctx context.Context, invoice *billing.Invoice) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seq, err := allocateSequence(tx, invoice.ClientID, invoice.Period)
		if err != nil {
			return err
		}
		if err := invoice.AssignNumber(r.numberPrefix, seq); err != nil {
			return err
		}

		model := models.InvoiceModelFromDomain(invoice)
		if err := tx.Create(model).Error; err != nil {
			// A collision on the number unique index means the allocator
			// contract was violated; surface it as its own error.
			if isUniqueViolation(err) {
				return shared.ErrDuplicateInvoiceNumber
			}
			return err
		}
		return nil
	})
}

// FindByID finds an invoice with its line items by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByNumber finds an invoice by its externally visible number
func (r *GormInvoiceRepository) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Preload("LineItems").
		First(&model, "number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll returns invoices with pagination and filtering
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter, page, pageSize int) ([]*billing.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{})

	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Period != nil {
		query = query.Where("period_key = ?", filter.Period.Key())
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if page > 0 && pageSize > 0 {
		offset := (page - 1) * pageSize
		query = query.Offset(offset).Limit(pageSize)
	}
	query = query.Order("created_at DESC")

	var invoiceModels []models.InvoiceModel
	if err := query.Preload("LineItems").Find(&invoiceModels).Error; err != nil {
		return nil, 0, err
	}

	invoices := make([]*billing.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		inv, err := invoiceModels[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		invoices[i] = inv
	}
	return invoices, totalCount, nil
}

// Update persists status and notes changes. Line items are immutable after
// creation and are not touched.
func (r *GormInvoiceRepository) Update(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	result := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"status":     model.Status,
			"notes":      model.Notes,
			"version":    model.Version,
			"updated_at": model.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a draft invoice and its line items
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.InvoiceModel
		if err := tx.First(&model, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}
		if model.Status != billing.InvoiceStatusDraft {
			return shared.ErrInvalidState
		}

		if err := tx.Delete(&models.InvoiceLineItemModel{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.InvoiceModel{}, "id = ?", id).Error
	})
}

// Compile-time interface compliance check
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
