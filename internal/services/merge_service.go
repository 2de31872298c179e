package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/vanledger/vanledger-api/internal/locks"
	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/repository"
	"github.com/vanledger/vanledger-api/pkg/logger"
)

// MergeResult summarizes a duplicate-settlement repair run.
type MergeResult struct {
	VehicleID    string   `json:"vehicle_id"`
	GroupsMerged int      `json:"groups_merged"`
	Removed      []string `json:"removed"`
	Kept         []string `json:"kept"`
}

// MergeService collapses duplicate settlement periods. Duplicates arise when
// the per-vehicle lock was bypassed (historic data, direct DB writes): two
// SUBMITTED rows for the same vehicle each claim a slice of the same
// activity, whether or not they carry the same date. The repair keeps the
// earliest row, deletes the rest, and recomputes the survivor over the
// combined span so nothing is counted twice or dropped.
type MergeService struct {
	db       *gorm.DB
	auditSvc *AuditService
	locker   locks.Locker
}

// NewMergeService creates a new merge service
func NewMergeService(db *gorm.DB, auditSvc *AuditService, locker locks.Locker) *MergeService {
	return &MergeService{db: db, auditSvc: auditSvc, locker: locker}
}

// MergeVehicle repairs all duplicate groups for one vehicle inside a single
// database transaction, under the same per-vehicle lock used by settlement
// creation.
func (s *MergeService) MergeVehicle(ctx context.Context, vehicleID, actor string) (*MergeResult, error) {
	lock, err := s.locker.Obtain(ctx, vehicleLockKey(vehicleID), settlementLockTTL)
	if err == locks.ErrNotObtained {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to release merge lock", "vehicle_id", vehicleID, "error", err)
		}
	}()

	result := &MergeResult{VehicleID: vehicleID}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		settlementRepo := repository.NewSettlementRepository(tx)

		groups, err := settlementRepo.FindDuplicateGroups(ctx, vehicleID)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			return ErrNotDuplicated
		}

		for _, group := range groups {
			if err := s.mergeGroup(ctx, tx, group.VehicleID, result); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, actor, "MERGE", "Settlement", vehicleID,
		fmt.Sprintf("merged %d duplicate group(s), removed %d row(s)", result.GroupsMerged, len(result.Removed)), "", "")
	return result, nil
}

// mergeGroup collapses a vehicle's duplicate settlements. Only SUBMITTED rows
// participate; an APPROVED row is frozen history and is left alone.
func (s *MergeService) mergeGroup(ctx context.Context, tx *gorm.DB, vehicleID string, result *MergeResult) error {
	settlementRepo := repository.NewSettlementRepository(tx)

	rows, err := settlementRepo.FindByVehicle(ctx, vehicleID, models.SettlementStatusSubmitted)
	if err != nil {
		return err
	}
	plan := planMerge(rows)
	if plan == nil {
		return nil
	}

	journalRepo := repository.NewJournalRepository(tx)
	for _, dup := range plan.removed {
		if err := journalRepo.DeleteByReference(ctx, dup.ID); err != nil {
			return err
		}
		if err := settlementRepo.Delete(ctx, dup.ID); err != nil {
			return err
		}
		result.Removed = append(result.Removed, dup.ID)
	}

	if err := s.recomputeMerged(ctx, tx, plan.canonical, plan.span); err != nil {
		return err
	}

	result.GroupsMerged++
	result.Kept = append(result.Kept, plan.canonical.ID)
	logger.Info("Merged duplicate settlements",
		"vehicle_id", vehicleID,
		"settlement_date", plan.canonical.SettlementDate.Format("2006-01-02"),
		"kept", plan.canonical.ID,
		"removed", len(plan.removed))
	return nil
}

// mergePlan names the survivor of a duplicate group, the rows to delete, and
// the right edge of the combined recompute span.
type mergePlan struct {
	canonical *models.Settlement
	removed   []models.Settlement
	span      time.Time
}

// planMerge picks the merge survivor among a vehicle's settlements: the
// earliest SUBMITTED row by settlement date, creation time breaking ties.
// Rows in any other status never participate. Returns nil when fewer than two
// rows qualify.
func planMerge(rows []models.Settlement) *mergePlan {
	var submitted []models.Settlement
	for _, row := range rows {
		if row.Status == models.SettlementStatusSubmitted {
			submitted = append(submitted, row)
		}
	}
	if len(submitted) < 2 {
		return nil
	}

	canonical := 0
	span := submitted[0].CreatedAt
	for i := 1; i < len(submitted); i++ {
		c := &submitted[canonical]
		if submitted[i].SettlementDate.Before(c.SettlementDate) ||
			(submitted[i].SettlementDate.Equal(c.SettlementDate) && submitted[i].CreatedAt.Before(c.CreatedAt)) {
			canonical = i
		}
		if submitted[i].CreatedAt.After(span) {
			span = submitted[i].CreatedAt
		}
	}

	plan := &mergePlan{canonical: &submitted[canonical], span: span}
	for i := range submitted {
		if i != canonical {
			plan.removed = append(plan.removed, submitted[i])
		}
	}
	return plan
}

// recomputeMerged refreshes the surviving settlement over the full span the
// duplicates covered: from the last APPROVED cutoff through the latest
// duplicate's creation time, ignoring the business-date filter so every row
// the deleted periods had claimed lands in the survivor.
func (s *MergeService) recomputeMerged(ctx context.Context, tx *gorm.DB, settlement *models.Settlement, asOf time.Time) error {
	windowSvc := NewWindowService(
		repository.NewSettlementRepository(tx),
		repository.NewTransactionRepository(tx),
		repository.NewVehicleRepository(tx),
	)
	window, err := windowSvc.ComputeWindow(ctx, settlement.VehicleID, settlement.SettlementDate, WindowOptions{
		ExcludeID:        settlement.ID,
		AsOf:             asOf,
		IgnoreCutoffDate: true,
	})
	if err != nil {
		return err
	}
	if err := windowSvc.AttachActivity(ctx, window); err != nil {
		return err
	}

	applyStats(settlement, Aggregate(window, settlement.Expenses), settlement.ActualCash)
	return repository.NewSettlementRepository(tx).Update(ctx, settlement)
}

// MergeAll scans the whole fleet for duplicate groups and repairs every
// affected vehicle. Used by the admin endpoint and the scheduled job.
func (s *MergeService) MergeAll(ctx context.Context, actor string) ([]MergeResult, error) {
	groups, err := repository.NewSettlementRepository(s.db).FindDuplicateGroups(ctx, "")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var results []MergeResult
	for _, group := range groups {
		if seen[group.VehicleID] {
			continue
		}
		seen[group.VehicleID] = true

		result, err := s.MergeVehicle(ctx, group.VehicleID, actor)
		if err == ErrLockHeld || err == ErrNotDuplicated {
			logger.Warn("Skipping vehicle during fleet merge", "vehicle_id", group.VehicleID, "reason", err)
			continue
		}
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}
