package repository

import (
	"context"

	"github.com/vanledger/vanledger-api/internal/models"

	"gorm.io/gorm"
)

// AccountMovement is the per-account debit/credit roll-up of all journal
// lines, produced in a single grouped query.
type AccountMovement struct {
	AccountID   string
	TotalDebit  float64
	TotalCredit float64
}

// JournalRepository defines the interface for journal entry data access
type JournalRepository interface {
	CreateEntry(ctx context.Context, entry *models.JournalEntry) error
	FindByReference(ctx context.Context, referenceID string) ([]models.JournalEntry, error)
	SumLinesByAccount(ctx context.Context) ([]AccountMovement, error)
	DeleteByReference(ctx context.Context, referenceID string) error
}

// journalRepository handles database operations for journal entries
type journalRepository struct {
	db *gorm.DB
}

// NewJournalRepository creates a new journal repository
func NewJournalRepository(db *gorm.DB) JournalRepository {
	return &journalRepository{db: db}
}

// CreateEntry creates a journal entry together with its lines
func (r *journalRepository) CreateEntry(ctx context.Context, entry *models.JournalEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *journalRepository) FindByReference(ctx context.Context, referenceID string) ([]models.JournalEntry, error) {
	var entries []models.JournalEntry
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("reference_id = ?", referenceID).
		Order("date ASC").
		Find(&entries).Error
	return entries, err
}

// SumLinesByAccount rolls up every journal line grouped by account in one
// query, so a full balance recompute touches the table exactly once.
func (r *journalRepository) SumLinesByAccount(ctx context.Context) ([]AccountMovement, error) {
	var movements []AccountMovement
	err := r.db.WithContext(ctx).
		Model(&models.JournalLine{}).
		Select("account_id, COALESCE(SUM(debit), 0) as total_debit, COALESCE(SUM(credit), 0) as total_credit").
		Group("account_id").
		Scan(&movements).Error
	return movements, err
}

// DeleteByReference removes journal entries produced by a source document,
// lines included. Used when a duplicate settlement is merged away.
func (r *journalRepository) DeleteByReference(ctx context.Context, referenceID string) error {
	var entries []models.JournalEntry
	if err := r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Find(&entries).Error; err != nil {
		return err
	}
	for _, entry := range entries {
		if err := r.db.WithContext(ctx).
			Where("journal_id = ?", entry.ID).
			Delete(&models.JournalLine{}).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).
		Where("reference_id = ?", referenceID).
		Delete(&models.JournalEntry{}).Error
}
