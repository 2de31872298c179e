package repository

import (
	"context"
	"time"

	"github.com/vanledger/vanledger-api/internal/models"

	"gorm.io/gorm"
)

// AuditRepository defines the interface for audit log data access
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	FindByEntity(ctx context.Context, entity, entityID string) ([]models.AuditLog, error)
	List(ctx context.Context, from, to *time.Time, limit int) ([]models.AuditLog, error)
}

// auditRepository handles database operations for audit logs
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) FindByEntity(ctx context.Context, entity, entityID string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := r.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}

func (r *auditRepository) List(ctx context.Context, from, to *time.Time, limit int) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if from != nil {
		q = q.Where("created_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&entries).Error
	return entries, err
}
