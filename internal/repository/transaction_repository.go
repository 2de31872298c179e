package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vanledger/vanledger-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateTransaction is returned when a transaction with the same ID was
// already posted. Offline clients retry uploads, so this is an expected
// outcome rather than a failure.
var ErrDuplicateTransaction = errors.New("transaction already posted")

// TransactionRepository defines the interface for transaction data access
type TransactionRepository interface {
	CreateIdempotent(ctx context.Context, txn *models.Transaction) error
	FindByID(ctx context.Context, id string) (*models.Transaction, error)
	FindPostedByPartner(ctx context.Context, partnerID string) ([]models.Transaction, error)
	FindPostedForVehicle(ctx context.Context, vehicleID string, since *time.Time, until *time.Time) ([]models.Transaction, error)
	FindByReference(ctx context.Context, referenceID string) ([]models.Transaction, error)
	LatestSyncedAt(ctx context.Context) (*time.Time, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// transactionRepository handles database operations for transactions
type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

// CreateIdempotent inserts the transaction, treating a primary-key conflict as
// ErrDuplicateTransaction instead of an error. The existing row wins.
func (r *transactionRepository) CreateIdempotent(ctx context.Context, txn *models.Transaction) error {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(txn)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrDuplicateTransaction
	}
	return nil
}

func (r *transactionRepository) FindByID(ctx context.Context, id string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).First(&txn, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// FindPostedByPartner retrieves all posted transactions for a partner in
// chronological order. Used for partner balance derivation.
func (r *transactionRepository) FindPostedByPartner(ctx context.Context, partnerID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("partner_id = ? AND status = ?", partnerID, models.TransactionStatusPosted).
		Order("synced_at ASC, id ASC").
		Find(&txns).Error
	return txns, err
}

// FindPostedForVehicle retrieves posted transactions for a vehicle filtered by
// arrival time (synced_at), the field settlement windows are cut on.
func (r *transactionRepository) FindPostedForVehicle(ctx context.Context, vehicleID string, since *time.Time, until *time.Time) ([]models.Transaction, error) {
	var txns []models.Transaction
	q := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status = ?", vehicleID, models.TransactionStatusPosted)
	if since != nil {
		q = q.Where("synced_at > ?", *since)
	}
	if until != nil {
		q = q.Where("synced_at <= ?", *until)
	}
	err := q.Order("synced_at ASC, id ASC").Find(&txns).Error
	return txns, err
}

func (r *transactionRepository) FindByReference(ctx context.Context, referenceID string) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("reference_transaction_id = ?", referenceID).
		Order("synced_at ASC").
		Find(&txns).Error
	return txns, err
}

// LatestSyncedAt returns the most recent arrival timestamp, or nil when no
// transactions exist. Used to keep server-assigned timestamps monotonic
// across restarts.
func (r *transactionRepository) LatestSyncedAt(ctx context.Context) (*time.Time, error) {
	var result struct {
		SyncedAt *time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("MAX(synced_at) as synced_at").
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return result.SyncedAt, nil
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("status", status).Error
}
