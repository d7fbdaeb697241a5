package client

import "context"

// Repository provides read access to the client directory.
type Repository interface {
	// FindByID returns the client or shared.ErrNotFound.
	FindByID(ctx context.Context, id uint) (*Client, error)
	// Exists reports whether an active client with the given ID exists.
	Exists(ctx context.Context, id uint) (bool, error)
	// Save persists a client (used by fixtures and the admin surface).
	Save(ctx context.Context, c *Client) error
}
