package repository

import (
	"context"
	"time"

	"github.com/vanledger/vanledger-api/internal/models"

	"gorm.io/gorm"
)

// VehicleRepository defines the interface for vehicle data access
type VehicleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Vehicle, error)
	FindAll(ctx context.Context) ([]models.Vehicle, error)
	FindVisits(ctx context.Context, vehicleID string, since *time.Time, until *time.Time) ([]models.CustomerVisit, error)
	FindReturns(ctx context.Context, vehicleID string, since *time.Time, until *time.Time) ([]models.VehicleReturn, error)
	CreateVisit(ctx context.Context, visit *models.CustomerVisit) error
	CreateReturn(ctx context.Context, ret *models.VehicleReturn) error
}

// vehicleRepository handles database operations for vehicles
type vehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).First(&vehicle, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) FindAll(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.WithContext(ctx).Order("plate_number ASC").Find(&vehicles).Error
	return vehicles, err
}

// FindVisits retrieves visits for a vehicle filtered on arrival time
// (created_at), matching how transactions are windowed.
func (r *vehicleRepository) FindVisits(ctx context.Context, vehicleID string, since *time.Time, until *time.Time) ([]models.CustomerVisit, error) {
	var visits []models.CustomerVisit
	q := r.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID)
	if since != nil {
		q = q.Where("created_at > ?", *since)
	}
	if until != nil {
		q = q.Where("created_at <= ?", *until)
	}
	err := q.Order("created_at ASC").Find(&visits).Error
	return visits, err
}

// FindReturns retrieves warehouse returns for a vehicle filtered on arrival
// time (created_at)
func (r *vehicleRepository) FindReturns(ctx context.Context, vehicleID string, since *time.Time, until *time.Time) ([]models.VehicleReturn, error) {
	var returns []models.VehicleReturn
	q := r.db.WithContext(ctx).Where("vehicle_id = ?", vehicleID)
	if since != nil {
		q = q.Where("created_at > ?", *since)
	}
	if until != nil {
		q = q.Where("created_at <= ?", *until)
	}
	err := q.Order("created_at ASC").Find(&returns).Error
	return returns, err
}

func (r *vehicleRepository) CreateVisit(ctx context.Context, visit *models.CustomerVisit) error {
	return r.db.WithContext(ctx).Create(visit).Error
}

func (r *vehicleRepository) CreateReturn(ctx context.Context, ret *models.VehicleReturn) error {
	return r.db.WithContext(ctx).Create(ret).Error
}
