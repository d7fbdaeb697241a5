package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejit/billing/internal/domain/client"
	"github.com/tejit/billing/internal/domain/shared"
)

func TestGormClientRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormClientRepository(db)
	ctx := context.Background()

	t.Run("save assigns an ID and round-trips", func(t *testing.T) {
		c, err := client.NewClient("Acme Corp", "usd", true)
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, c))
		require.NotZero(t, c.ID)

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme Corp", found.Name)
		assert.Equal(t, "USD", found.DefaultCurrency)
		assert.True(t, found.TaxRegistered)
		assert.True(t, found.Active)
	})

	t.Run("FindByID returns ErrNotFound for unknown client", func(t *testing.T) {
		_, err := repo.FindByID(ctx, 99999)
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("Exists considers only active clients", func(t *testing.T) {
		c, err := client.NewClient("Dormant Ltd", "EUR", false)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))

		exists, err := repo.Exists(ctx, c.ID)
		require.NoError(t, err)
		assert.True(t, exists)

		c.Deactivate()
		require.NoError(t, repo.Save(ctx, c))

		exists, err = repo.Exists(ctx, c.ID)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
