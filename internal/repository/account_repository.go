package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/casabook/casabook-api/internal/models"
)

// AccountRepository defines the interface for account and category lookups.
// Account management is owned elsewhere; the engine only validates references
// before posting.
type AccountRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Account, error)
	CategoryExists(ctx context.Context, id uint) (bool, error)
}

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) FindByID(ctx context.Context, id uint) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) CategoryExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
