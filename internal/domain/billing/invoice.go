package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tejit/billing/internal/domain/shared"
)

// InvoiceStatus represents the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is valid
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// Invoice is the settlement aggregate. Its number is allocated atomically
// with the row insert; draft is the only editable or deletable state.
type Invoice struct {
	shared.BaseAggregateRoot
	Number        string
	ClientID      uint
	Period        Period
	Sequence      int64
	IssueDate     time.Time
	DueDate       time.Time
	TaxApplicable bool
	Status        InvoiceStatus
	Notes         string
	LineItems     []*LineItem
}

// NewInvoice creates a draft invoice. The number and sequence stay empty
// until the repository allocates them at persist time.
func NewInvoice(clientID uint, period Period, issueDate, dueDate time.Time, taxApplicable bool, items []*LineItem) (*Invoice, error) {
	if clientID == 0 {
		return nil, shared.ErrClientNotFound
	}
	if period.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Invoice period is required")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_LINE_ITEM", "Invoice requires at least one line item")
	}
	if dueDate.Before(issueDate) {
		return nil, shared.NewDomainError("INVALID_DUE_DATE", "Due date cannot precede issue date")
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ClientID:          clientID,
		Period:            period,
		IssueDate:         issueDate,
		DueDate:           dueDate,
		TaxApplicable:     taxApplicable,
		Status:            InvoiceStatusDraft,
		LineItems:         items,
	}
	for _, item := range items {
		item.InvoiceID = inv.ID
	}
	return inv, nil
}

// AssignNumber records the allocated sequence and formatted number. Called
// exactly once, inside the transaction that persists the invoice.
func (i *Invoice) AssignNumber(prefix string, sequence int64) error {
	if i.Number != "" {
		return shared.NewDomainError("NUMBER_ASSIGNED", "Invoice number is already assigned")
	}
	if sequence < 1 {
		return shared.NewDomainError("INVALID_SEQUENCE", fmt.Sprintf("Invalid sequence number: %d", sequence))
	}
	i.Sequence = sequence
	i.Number = FormatInvoiceNumber(prefix, i.ClientID, i.Period, sequence)
	return nil
}

// Totals recomputes the invoice amounts from its line items.
func (i *Invoice) Totals(taxRatePercent decimal.Decimal) Totals {
	return ComputeTotals(i.LineItems, i.TaxApplicable, taxRatePercent)
}

// Editable reports whether the invoice can still be modified or deleted.
func (i *Invoice) Editable() bool {
	return i.Status == InvoiceStatusDraft
}

// Send transitions draft to sent.
func (i *Invoice) Send() error {
	if i.Status != InvoiceStatusDraft {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot send invoice in state: %s", i.Status))
	}
	i.Status = InvoiceStatusSent
	i.touch()
	return nil
}

// MarkPaid transitions sent to paid.
func (i *Invoice) MarkPaid() error {
	if i.Status != InvoiceStatusSent {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot mark invoice paid in state: %s", i.Status))
	}
	i.Status = InvoiceStatusPaid
	i.touch()
	return nil
}

// Cancel voids a draft or sent invoice. Paid invoices cannot be cancelled.
func (i *Invoice) Cancel() error {
	if i.Status != InvoiceStatusDraft && i.Status != InvoiceStatusSent {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel invoice in state: %s", i.Status))
	}
	i.Status = InvoiceStatusCancelled
	i.touch()
	return nil
}

// SetNotes replaces the free-text notes; drafts only.
func (i *Invoice) SetNotes(notes string) error {
	if !i.Editable() {
		return shared.ErrInvalidState
	}
	i.Notes = notes
	i.touch()
	return nil
}

func (i *Invoice) touch() {
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}
