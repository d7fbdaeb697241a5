package models

import (
	"time"

	"github.com/tejit/billing/internal/domain/client"
)

// ClientModel is the persistence model for the Client directory entry.
type ClientModel struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	Name            string    `gorm:"type:varchar(255);not null"`
	DefaultCurrency string    `gorm:"type:varchar(3);not null"`
	TaxRegistered   bool      `gorm:"not null;default:false"`
	Active          bool      `gorm:"not null;default:true;index"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ClientModel) TableName() string {
	return "clients"
}

// ToDomain converts the persistence model to a domain Client.
func (m *ClientModel) ToDomain() *client.Client {
	return &client.Client{
		ID:              m.ID,
		Name:            m.Name,
		DefaultCurrency: m.DefaultCurrency,
		TaxRegistered:   m.TaxRegistered,
		Active:          m.Active,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Client.
func (m *ClientModel) FromDomain(c *client.Client) {
	m.ID = c.ID
	m.Name = c.Name
	m.DefaultCurrency = c.DefaultCurrency
	m.TaxRegistered = c.TaxRegistered
	m.Active = c.Active
	m.CreatedAt = c.CreatedAt
	m.UpdatedAt = c.UpdatedAt
}

// ClientModelFromDomain creates a new persistence model from a domain Client.
func ClientModelFromDomain(c *client.Client) *ClientModel {
	m := &ClientModel{}
	m.FromDomain(c)
	return m
}
