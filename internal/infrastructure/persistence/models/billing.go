package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tejit/billing/internal/domain/billing"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	AggregateModel
	Number        string                 `gorm:"type:varchar(64);not null;uniqueIndex"`
	ClientID      uint                   `gorm:"not null;index"`
	PeriodKey     string                 `gorm:"type:varchar(7);not null;index"`
	Sequence      int64                  `gorm:"not null"`
	IssueDate     time.Time              `gorm:"type:date;not null"`
	DueDate       time.Time              `gorm:"type:date;not null"`
	TaxApplicable bool                   `gorm:"not null;default:false"`
	Status        billing.InvoiceStatus  `gorm:"type:varchar(20);not null;default:'draft';index"`
	Notes         string                 `gorm:"type:text"`
	LineItems     []InvoiceLineItemModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() (*billing.Invoice, error) {
	period, err := billing.ParsePeriod(m.PeriodKey)
	if err != nil {
		return nil, err
	}

	inv := &billing.Invoice{
		Number:        m.Number,
		ClientID:      m.ClientID,
		Period:        period,
		Sequence:      m.Sequence,
		IssueDate:     m.IssueDate,
		DueDate:       m.DueDate,
		TaxApplicable: m.TaxApplicable,
		Status:        m.Status,
		Notes:         m.Notes,
		LineItems:     make([]*billing.LineItem, len(m.LineItems)),
	}
	m.PopulateAggregateRoot(&inv.BaseAggregateRoot)
	for i := range m.LineItems {
		inv.LineItems[i] = m.LineItems[i].ToDomain()
	}
	return inv, nil
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.Number = inv.Number
	m.ClientID = inv.ClientID
	m.PeriodKey = inv.Period.Key()
	m.Sequence = inv.Sequence
	m.IssueDate = inv.IssueDate
	m.DueDate = inv.DueDate
	m.TaxApplicable = inv.TaxApplicable
	m.Status = inv.Status
	m.Notes = inv.Notes

	m.LineItems = make([]InvoiceLineItemModel, len(inv.LineItems))
	for i, item := range inv.LineItems {
		m.LineItems[i].FromDomain(item)
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// InvoiceLineItemModel is the persistence model for an invoice line item.
// Amounts are derived from quantity, rate and discount on read, never stored.
type InvoiceLineItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ComponentRef    string          `gorm:"type:varchar(128)"`
	Description     string          `gorm:"type:varchar(500);not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	Rate            decimal.Decimal `gorm:"type:decimal(20,6);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Currency        string          `gorm:"type:varchar(3)"`
}

// TableName returns the table name for GORM
func (InvoiceLineItemModel) TableName() string {
	return "invoice_line_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *InvoiceLineItemModel) ToDomain() *billing.LineItem {
	return &billing.LineItem{
		ID:              m.ID,
		InvoiceID:       m.InvoiceID,
		ComponentRef:    m.ComponentRef,
		Description:     m.Description,
		Quantity:        m.Quantity,
		Rate:            m.Rate,
		DiscountPercent: m.DiscountPercent,
		Currency:        m.Currency,
	}
}

// FromDomain populates the persistence model from a domain LineItem.
func (m *InvoiceLineItemModel) FromDomain(item *billing.LineItem) {
	m.ID = item.ID
	m.InvoiceID = item.InvoiceID
	m.ComponentRef = item.ComponentRef
	m.Description = item.Description
	m.Quantity = item.Quantity
	m.Rate = item.Rate
	m.DiscountPercent = item.DiscountPercent
	m.Currency = item.Currency
}

// InvoiceSequenceModel tracks the last allocated invoice sequence per
// (client, period). Rows are created lazily on first allocation.
type InvoiceSequenceModel struct {
	ClientID  uint      `gorm:"primaryKey;autoIncrement:false"`
	PeriodKey string    `gorm:"type:varchar(7);primaryKey"`
	LastValue int64     `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceSequenceModel) TableName() string {
	return "invoice_sequences"
}
