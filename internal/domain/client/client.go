// Package client models the Client Directory the billing pipeline consults
// for client existence, default currency and tax registration.
package client

import (
	"strings"
	"time"

	"github.com/tejit/billing/internal/domain/shared"
)

// Client is a directory entry for a billed client. The pipeline only reads
// clients; lifecycle management lives in the surrounding application.
type Client struct {
	ID              uint
	Name            string
	DefaultCurrency string
	TaxRegistered   bool
	Active          bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewClient creates a directory entry with validation.
func NewClient(name, defaultCurrency string, taxRegistered bool) (*Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_CLIENT_NAME", "Client name cannot be empty")
	}
	currency := strings.ToUpper(strings.TrimSpace(defaultCurrency))
	if len(currency) != 3 {
		return nil, shared.NewDomainError("INVALID_CURRENCY", "Default currency must be a 3-letter ISO code")
	}

	now := time.Now()
	return &Client{
		Name:            name,
		DefaultCurrency: currency,
		TaxRegistered:   taxRegistered,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Deactivate marks the client as inactive. Inactive clients cannot receive
// new imports or invoices.
func (c *Client) Deactivate() {
	c.Active = false
	c.UpdatedAt = time.Now()
}
