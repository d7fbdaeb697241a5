package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tejit/billing/internal/domain/shared"
)

var oneHundred = decimal.NewFromInt(100)

// LineItem is one billed position on an invoice. Its amount is derived on
// read and never stored.
type LineItem struct {
	ID              uuid.UUID
	InvoiceID       uuid.UUID
	ComponentRef    string
	Description     string
	Quantity        decimal.Decimal
	Rate            decimal.Decimal
	DiscountPercent decimal.Decimal
	Currency        string
}

// NewLineItem creates a validated line item.
func NewLineItem(description string, quantity, rate, discountPercent decimal.Decimal, currency string) (*LineItem, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, shared.NewDomainError("INVALID_LINE_ITEM", "Line item description cannot be empty")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_LINE_ITEM", "Line item quantity must be positive")
	}
	if rate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_LINE_ITEM", "Line item rate cannot be negative")
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(oneHundred) {
		return nil, shared.NewDomainError("INVALID_LINE_ITEM", "Discount percentage must be between 0 and 100")
	}

	return &LineItem{
		ID:              uuid.New(),
		Description:     description,
		Quantity:        quantity,
		Rate:            rate,
		DiscountPercent: discountPercent,
		Currency:        strings.ToUpper(strings.TrimSpace(currency)),
	}, nil
}

// WithComponentRef attaches a reference to the priced component backing the line.
func (li *LineItem) WithComponentRef(ref string) *LineItem {
	li.ComponentRef = ref
	return li
}

// Amount computes quantity x rate x (1 - discount/100) at full decimal
// precision. Rounding happens only at the invoice-total boundary.
func (li *LineItem) Amount() decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(li.DiscountPercent.Div(oneHundred))
	return li.Quantity.Mul(li.Rate).Mul(factor)
}
