package repository

import (
	"context"
	"time"

	"github.com/vanledger/vanledger-api/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DuplicateGroup identifies a vehicle holding more than one SUBMITTED
// settlement row. Duplicates are grouped per vehicle regardless of their
// settlement date; they all collapse into one period.
type DuplicateGroup struct {
	VehicleID string
	Count     int
}

// SettlementRepository defines the interface for settlement data access
type SettlementRepository interface {
	Create(ctx context.Context, settlement *models.Settlement) error
	FindByID(ctx context.Context, id string) (*models.Settlement, error)
	FindByIDForUpdate(ctx context.Context, id string) (*models.Settlement, error)
	FindByVehicle(ctx context.Context, vehicleID string, status string) ([]models.Settlement, error)
	FindForVehicleDate(ctx context.Context, vehicleID string, date time.Time) ([]models.Settlement, error)
	FindLatestBounding(ctx context.Context, vehicleID string, excludeID string, before time.Time) (*models.Settlement, error)
	FindLatestApproved(ctx context.Context, vehicleID string, before time.Time) (*models.Settlement, error)
	FindDuplicateGroups(ctx context.Context, vehicleID string) ([]DuplicateGroup, error)
	Update(ctx context.Context, settlement *models.Settlement) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, status string, from, to *time.Time) ([]models.Settlement, error)
}

// settlementRepository handles database operations for settlements
type settlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *gorm.DB) SettlementRepository {
	return &settlementRepository{db: db}
}

func (r *settlementRepository) Create(ctx context.Context, settlement *models.Settlement) error {
	return r.db.WithContext(ctx).Create(settlement).Error
}

func (r *settlementRepository) FindByID(ctx context.Context, id string) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.WithContext(ctx).
		Preload("Expenses").
		First(&settlement, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// FindByIDForUpdate loads a settlement under a row lock. Callers must run
// inside a transaction; the lock serializes concurrent approval attempts.
func (r *settlementRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&settlement, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

func (r *settlementRepository) FindByVehicle(ctx context.Context, vehicleID string, status string) ([]models.Settlement, error) {
	var settlements []models.Settlement
	q := r.db.WithContext(ctx).
		Preload("Expenses").
		Where("vehicle_id = ?", vehicleID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("settlement_date DESC, created_at DESC").Find(&settlements).Error
	return settlements, err
}

// FindForVehicleDate retrieves every settlement row for a vehicle on a
// calendar date, oldest first. More than one row means duplicates.
func (r *settlementRepository) FindForVehicleDate(ctx context.Context, vehicleID string, date time.Time) ([]models.Settlement, error) {
	var settlements []models.Settlement
	day := date.Truncate(24 * time.Hour)
	err := r.db.WithContext(ctx).
		Preload("Expenses").
		Where("vehicle_id = ? AND settlement_date >= ? AND settlement_date < ?",
			vehicleID, day, day.Add(24*time.Hour)).
		Order("created_at ASC").
		Find(&settlements).Error
	return settlements, err
}

// FindLatestBounding returns the most recent settlement that bounds a new
// window (APPROVED or SUBMITTED), ranked by COALESCE(approved_at, created_at).
// Only rows strictly older than before qualify: recomputing a historical
// period must not pick a later settlement as its cutoff, which would invert
// the window. excludeID skips the settlement currently being recomputed.
func (r *settlementRepository) FindLatestBounding(ctx context.Context, vehicleID string, excludeID string, before time.Time) (*models.Settlement, error) {
	var settlement models.Settlement
	q := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status IN ?", vehicleID,
			[]string{models.SettlementStatusApproved, models.SettlementStatusSubmitted}).
		Where("COALESCE(approved_at, created_at) < ?", before)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Order("COALESCE(approved_at, created_at) DESC").
		First(&settlement).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// FindLatestApproved returns the most recent APPROVED settlement strictly
// older than before. The merge procedure uses this stricter cutoff so that
// the rows it is about to delete cannot bound their own replacement window.
func (r *settlementRepository) FindLatestApproved(ctx context.Context, vehicleID string, before time.Time) (*models.Settlement, error) {
	var settlement models.Settlement
	err := r.db.WithContext(ctx).
		Where("vehicle_id = ? AND status = ?", vehicleID, models.SettlementStatusApproved).
		Where("COALESCE(approved_at, created_at) < ?", before).
		Order("COALESCE(approved_at, created_at) DESC").
		First(&settlement).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// FindDuplicateGroups scans for vehicles holding more than one SUBMITTED
// settlement, whatever their dates. Pass vehicleID = "" to scan the whole
// fleet.
func (r *settlementRepository) FindDuplicateGroups(ctx context.Context, vehicleID string) ([]DuplicateGroup, error) {
	var groups []DuplicateGroup
	q := r.db.WithContext(ctx).
		Model(&models.Settlement{}).
		Select("vehicle_id, COUNT(*) as count").
		Where("status = ?", models.SettlementStatusSubmitted).
		Group("vehicle_id").
		Having("COUNT(*) > 1")
	if vehicleID != "" {
		q = q.Where("vehicle_id = ?", vehicleID)
	}
	err := q.Scan(&groups).Error
	return groups, err
}

func (r *settlementRepository) Update(ctx context.Context, settlement *models.Settlement) error {
	return r.db.WithContext(ctx).Save(settlement).Error
}

func (r *settlementRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).
		Where("settlement_id = ?", id).
		Delete(&models.SettlementExpense{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Settlement{}, "id = ?", id).Error
}

func (r *settlementRepository) List(ctx context.Context, status string, from, to *time.Time) ([]models.Settlement, error) {
	var settlements []models.Settlement
	q := r.db.WithContext(ctx).Preload("Expenses")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if from != nil {
		q = q.Where("settlement_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("settlement_date <= ?", *to)
	}
	err := q.Order("settlement_date DESC, created_at DESC").Find(&settlements).Error
	return settlements, err
}
