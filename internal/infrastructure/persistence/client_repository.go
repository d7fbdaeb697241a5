package persistence

import (
	"context"
	"errors"

	"github.com/tejit/billing/internal/domain/client"
	"github.com/tejit/billing/internal/domain/shared"
	"github.com/tejit/billing/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormClientRepository implements client.Repository using GORM
type GormClientRepository struct {
	db *gorm.DB
}

// NewGormClientRepository creates a new GormClientRepository
func NewGormClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// FindByID finds a client by ID
func (r *GormClientRepository) FindByID(ctx context.Context, id uint) (*client.Client, error) {
	var model models.ClientModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Exists reports whether an active client with the given ID exists
func (r *GormClientRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ClientModel{}).
		Where("id = ? AND active = ?", id, true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save saves a client (create or update)
func (r *GormClientRepository) Save(ctx context.Context, c *client.Client) error {
	model := models.ClientModelFromDomain(c)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return err
	}
	// Propagate the generated ID back on first insert.
	c.ID = model.ID
	return nil
}

// Compile-time interface compliance check
var _ client.Repository = (*GormClientRepository)(nil)
