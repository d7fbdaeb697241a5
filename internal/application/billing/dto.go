package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tejit/billing/internal/domain/billing"
)

// LineItemRequest is one billed position in a create request
type LineItemRequest struct {
	Description     string          `json:"description" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Rate            decimal.Decimal `json:"rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	ComponentRef    string          `json:"component_ref"`
}

// CreateInvoiceRequest is the payload for issuing a draft invoice
type CreateInvoiceRequest struct {
	ClientID      uint              `json:"client_id" binding:"required"`
	Period        string            `json:"period" binding:"required"`
	IssueDate     string            `json:"issue_date"`
	DueDate       string            `json:"due_date"`
	TaxApplicable *bool             `json:"tax_applicable"`
	Currency      string            `json:"currency" binding:"omitempty,currency"`
	Notes         string            `json:"notes"`
	LineItems     []LineItemRequest `json:"line_items" binding:"required,min=1,dive"`
}

// UpdateInvoiceRequest carries the mutable fields of a draft invoice
type UpdateInvoiceRequest struct {
	Notes *string `json:"notes"`
}

// ListInvoicesQuery narrows and paginates invoice listings
type ListInvoicesQuery struct {
	ClientID *uint   `form:"client_id"`
	Status   *string `form:"status"`
	Period   *string `form:"period"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}

// LineItemResponse is the API view of a line item
type LineItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ComponentRef    string          `json:"component_ref,omitempty"`
	Description     string          `json:"description"`
	Quantity        decimal.Decimal `json:"quantity"`
	Rate            decimal.Decimal `json:"rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Currency        string          `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
}

// InvoiceResponse is the API view of an invoice. Totals are derived from the
// line items at response time.
type InvoiceResponse struct {
	ID            uuid.UUID          `json:"id"`
	Number        string             `json:"number"`
	ClientID      uint               `json:"client_id"`
	Period        string             `json:"period"`
	Sequence      int64              `json:"sequence"`
	IssueDate     time.Time          `json:"issue_date"`
	DueDate       time.Time          `json:"due_date"`
	TaxApplicable bool               `json:"tax_applicable"`
	Status        string             `json:"status"`
	Notes         string             `json:"notes,omitempty"`
	LineItems     []LineItemResponse `json:"line_items"`
	Subtotal      decimal.Decimal    `json:"subtotal"`
	Tax           decimal.Decimal    `json:"tax"`
	Total         decimal.Decimal    `json:"total"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// InvoiceListResponse is a paginated invoice listing
type InvoiceListResponse struct {
	Items      []*InvoiceResponse `json:"items"`
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

func toInvoiceResponse(inv *billing.Invoice, taxRatePercent decimal.Decimal) *InvoiceResponse {
	items := make([]LineItemResponse, len(inv.LineItems))
	for idx, item := range inv.LineItems {
		items[idx] = LineItemResponse{
			ID:              item.ID,
			ComponentRef:    item.ComponentRef,
			Description:     item.Description,
			Quantity:        item.Quantity,
			Rate:            item.Rate,
			DiscountPercent: item.DiscountPercent,
			Currency:        item.Currency,
			Amount:          item.Amount(),
		}
	}

	totals := inv.Totals(taxRatePercent)
	return &InvoiceResponse{
		ID:            inv.ID,
		Number:        inv.Number,
		ClientID:      inv.ClientID,
		Period:        inv.Period.Key(),
		Sequence:      inv.Sequence,
		IssueDate:     inv.IssueDate,
		DueDate:       inv.DueDate,
		TaxApplicable: inv.TaxApplicable,
		Status:        string(inv.Status),
		Notes:         inv.Notes,
		LineItems:     items,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Total:         totals.Total,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}
