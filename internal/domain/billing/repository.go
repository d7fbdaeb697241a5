package billing

import (
	"context"

	"github.com/google/uuid"
)

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	ClientID *uint
	Status   *InvoiceStatus
	Period   *Period
}

// InvoiceRepository persists invoices together with their line items.
type InvoiceRepository interface {
	// Create allocates the invoice's sequence number and inserts the invoice
	// and its line items in one storage transaction. On success the invoice
	// carries its assigned number.
	Create(ctx context.Context, invoice *Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindByNumber(ctx context.Context, number string) (*Invoice, error)
	FindAll(ctx context.Context, filter InvoiceFilter, page, pageSize int) ([]*Invoice, int64, error)
	// Update persists status/notes changes; line items are immutable after
	// creation.
	Update(ctx context.Context, invoice *Invoice) error
	// Delete removes a draft invoice and its line items.
	Delete(ctx context.Context, id uuid.UUID) error
}
