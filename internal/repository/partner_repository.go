package repository

import (
	"context"

	"github.com/vanledger/vanledger-api/internal/models"

	"gorm.io/gorm"
)

// PartnerRepository defines the interface for trading partner data access
type PartnerRepository interface {
	Create(ctx context.Context, partner *models.Partner) error
	FindByID(ctx context.Context, id string) (*models.Partner, error)
	FindAll(ctx context.Context, role string) ([]models.Partner, error)
	FindBySalesman(ctx context.Context, salesmanID string) ([]models.Partner, error)
	Update(ctx context.Context, partner *models.Partner) error
	UpdateBalance(ctx context.Context, id string, balance float64) error
}

// partnerRepository handles database operations for partners
type partnerRepository struct {
	db *gorm.DB
}

// NewPartnerRepository creates a new partner repository
func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) Create(ctx context.Context, partner *models.Partner) error {
	return r.db.WithContext(ctx).Create(partner).Error
}

func (r *partnerRepository) FindByID(ctx context.Context, id string) (*models.Partner, error) {
	var partner models.Partner
	err := r.db.WithContext(ctx).First(&partner, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

// FindAll retrieves partners, optionally filtered by role
// ("customer", "supplier" or "" for everyone)
func (r *partnerRepository) FindAll(ctx context.Context, role string) ([]models.Partner, error) {
	var partners []models.Partner
	q := r.db.WithContext(ctx).Order("name ASC")
	switch role {
	case "customer":
		q = q.Where("is_customer = ?", true)
	case "supplier":
		q = q.Where("is_supplier = ?", true)
	}
	err := q.Find(&partners).Error
	return partners, err
}

func (r *partnerRepository) FindBySalesman(ctx context.Context, salesmanID string) ([]models.Partner, error) {
	var partners []models.Partner
	err := r.db.WithContext(ctx).
		Where("salesman_id = ?", salesmanID).
		Order("name ASC").
		Find(&partners).Error
	return partners, err
}

func (r *partnerRepository) Update(ctx context.Context, partner *models.Partner) error {
	return r.db.WithContext(ctx).Save(partner).Error
}

// UpdateBalance writes a derived balance without touching other columns
func (r *partnerRepository) UpdateBalance(ctx context.Context, id string, balance float64) error {
	return r.db.WithContext(ctx).
		Model(&models.Partner{}).
		Where("id = ?", id).
		Update("balance", balance).Error
}
