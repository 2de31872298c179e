package repository

import (
	"context"

	"github.com/vanledger/vanledger-api/internal/models"

	"gorm.io/gorm"
)

// AccountRepository defines the interface for chart-of-accounts data access
type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id string) (*models.Account, error)
	FindByCode(ctx context.Context, code string) (*models.Account, error)
	FindAll(ctx context.Context) ([]models.Account, error)
	FindByType(ctx context.Context, accountType string) ([]models.Account, error)
	UpdateBalance(ctx context.Context, id string, balance float64) error
	Update(ctx context.Context, account *models.Account) error
}

// accountRepository handles database operations for accounts
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *accountRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByCode(ctx context.Context, code string) (*models.Account, error) {
	var account models.Account
	err := r.db.WithContext(ctx).First(&account, "code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// FindAll retrieves the full chart of accounts ordered by code
func (r *accountRepository) FindAll(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).Order("code ASC").Find(&accounts).Error
	return accounts, err
}

func (r *accountRepository) FindByType(ctx context.Context, accountType string) ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Where("type = ?", accountType).
		Order("code ASC").
		Find(&accounts).Error
	return accounts, err
}

// UpdateBalance writes a derived balance without touching other columns
func (r *accountRepository) UpdateBalance(ctx context.Context, id string, balance float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		Update("balance", balance).Error
}

func (r *accountRepository) Update(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}
