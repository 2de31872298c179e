package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vanledger/vanledger-api/internal/locks"
	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/repository"
	"github.com/vanledger/vanledger-api/internal/statemachine"
	"github.com/vanledger/vanledger-api/pkg/logger"
)

// Well-known account codes the approval journal posts against.
const (
	AccountCodeCashOnHand   = "1010"
	AccountCodeVanCustody   = "1050"
	AccountCodeVanExpenses  = "5200"
	AccountCodeCashShortage = "5900"
)

// settlementLockTTL bounds how long a per-vehicle settlement lock can be
// held. Long enough for a recompute, short enough that a crashed worker does
// not wedge the vehicle.
const settlementLockTTL = 30 * time.Second

// CreateSettlementRequest is the input for opening a settlement period.
type CreateSettlementRequest struct {
	VehicleID      string                     `json:"vehicle_id" binding:"required"`
	SettlementDate time.Time                  `json:"settlement_date" binding:"required"`
	SalesmanID     *string                    `json:"salesman_id"`
	SalesmanName   string                     `json:"salesman_name"`
	Notes          string                     `json:"notes"`
	ActualCash     float64                    `json:"actual_cash"`
	Expenses       []models.SettlementExpense `json:"expenses"`
	CreatedBy      string                     `json:"created_by"`
}

// SettlementService owns the settlement lifecycle: creation, live
// recomputation, the submit/approve/dispute/reopen transitions, and the
// journal posting that accompanies approval.
type SettlementService struct {
	db             *gorm.DB
	settlementRepo repository.SettlementRepository
	windowSvc      *WindowService
	auditSvc       *AuditService
	locker         locks.Locker
}

// NewSettlementService creates a new settlement service
func NewSettlementService(db *gorm.DB, windowSvc *WindowService, auditSvc *AuditService, locker locks.Locker) *SettlementService {
	return &SettlementService{
		db:             db,
		settlementRepo: repository.NewSettlementRepository(db),
		windowSvc:      windowSvc,
		auditSvc:       auditSvc,
		locker:         locker,
	}
}

func vehicleLockKey(vehicleID string) string {
	return "settlement:vehicle:" + vehicleID
}

// Create opens (or refreshes) the settlement period for a vehicle and date.
// The whole operation runs under a per-vehicle lock so two agents requesting
// reconciliation at once cannot mint duplicate periods; if a non-approved
// period already exists for the date it is recomputed in place instead of
// duplicated.
func (s *SettlementService) Create(ctx context.Context, req CreateSettlementRequest) (*models.Settlement, error) {
	lock, err := s.locker.Obtain(ctx, vehicleLockKey(req.VehicleID), settlementLockTTL)
	if err == locks.ErrNotObtained {
		return nil, ErrLockHeld
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to release settlement lock", "vehicle_id", req.VehicleID, "error", err)
		}
	}()

	var settlement *models.Settlement
	err = s.db.Transaction(func(tx *gorm.DB) error {
		settlementRepo := repository.NewSettlementRepository(tx)

		existing, err := settlementRepo.FindForVehicleDate(ctx, req.VehicleID, req.SettlementDate)
		if err != nil {
			return err
		}
		for i := range existing {
			if existing[i].IsFrozen() {
				continue
			}
			// Open period for this date already exists: refresh it.
			settlement = &existing[i]
			return s.recomputeLocked(ctx, tx, settlement, req.ActualCash, req.Expenses)
		}

		settlement = &models.Settlement{
			ID:             uuid.NewString(),
			VehicleID:      req.VehicleID,
			SettlementDate: req.SettlementDate,
			SalesmanID:     req.SalesmanID,
			SalesmanName:   req.SalesmanName,
			Status:         models.SettlementStatusDraft,
			Notes:          req.Notes,
			ActualCash:     req.ActualCash,
			CreatedBy:      req.CreatedBy,
			Expenses:       req.Expenses,
		}
		for i := range settlement.Expenses {
			if settlement.Expenses[i].ID == "" {
				settlement.Expenses[i].ID = uuid.NewString()
			}
			settlement.Expenses[i].SettlementID = settlement.ID
		}
		if err := settlementRepo.Create(ctx, settlement); err != nil {
			return err
		}
		return s.recomputeLocked(ctx, tx, settlement, req.ActualCash, req.Expenses)
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, req.CreatedBy, "CREATE", "Settlement", settlement.ID,
		fmt.Sprintf("settlement for vehicle %s on %s", req.VehicleID, req.SettlementDate.Format("2006-01-02")), "", "")
	return settlement, nil
}

// recomputeLocked refreshes a non-frozen settlement's aggregates from its
// current window and persists them. Caller holds the vehicle lock and runs
// inside tx.
func (s *SettlementService) recomputeLocked(ctx context.Context, tx *gorm.DB, settlement *models.Settlement, actualCash float64, expenses []models.SettlementExpense) error {
	if settlement.IsFrozen() {
		return ErrFrozen
	}
	windowSvc := NewWindowService(
		repository.NewSettlementRepository(tx),
		repository.NewTransactionRepository(tx),
		repository.NewVehicleRepository(tx),
	)
	window, err := windowSvc.ComputeWindow(ctx, settlement.VehicleID, settlement.SettlementDate, WindowOptions{
		ExcludeID: settlement.ID,
	})
	if err != nil {
		return err
	}
	if err := windowSvc.AttachActivity(ctx, window); err != nil {
		return err
	}
	if len(expenses) == 0 {
		expenses = settlement.Expenses
	}

	applyStats(settlement, Aggregate(window, expenses), actualCash)
	return repository.NewSettlementRepository(tx).Update(ctx, settlement)
}

// applyStats copies a window roll-up onto the settlement row.
func applyStats(settlement *models.Settlement, stats SettlementStats, actualCash float64) {
	settlement.TotalSales = stats.TotalSales
	settlement.TotalCashSales = stats.TotalCashSales
	settlement.TotalCreditSales = stats.TotalCreditSales
	settlement.TotalDiscounts = stats.TotalDiscounts
	settlement.TotalBankTransfers = stats.TotalBankTransfers
	settlement.CashCollected = stats.CashCollected
	settlement.TotalCollections = stats.TotalCollections
	settlement.TotalReturns = stats.TotalReturns
	settlement.ReturnCount = stats.ReturnCount
	settlement.TotalExpenses = stats.TotalExpenses
	settlement.ExpectedCash = stats.ExpectedCash
	settlement.ActualCash = actualCash
	settlement.CashDifference = round2f(actualCash - stats.ExpectedCash)
	settlement.TotalVisits = stats.TotalVisits
	settlement.SuccessfulVisits = stats.SuccessfulVisits
}

func round2f(f float64) float64 {
	return math.Round(f*100) / 100
}

// Get returns a settlement. Open periods are recomputed live; an APPROVED
// period returns its frozen aggregates verbatim. When the frozen figures no
// longer match a recomputation the divergence is logged for reconciliation
// but the stored row is never touched.
func (s *SettlementService) Get(ctx context.Context, id string) (*models.Settlement, error) {
	settlement, err := s.settlementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	if settlement.IsFrozen() {
		s.checkFrozenDrift(ctx, settlement)
		return settlement, nil
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.recomputeLocked(ctx, tx, settlement, settlement.ActualCash, nil)
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// checkFrozenDrift recomputes an approved settlement as of its approval time
// and logs when the historical record no longer matches the data underneath.
func (s *SettlementService) checkFrozenDrift(ctx context.Context, settlement *models.Settlement) {
	asOf := settlement.CutoffTime()
	window, err := s.windowSvc.ComputeWindow(ctx, settlement.VehicleID, settlement.SettlementDate, WindowOptions{
		ExcludeID: settlement.ID,
		AsOf:      asOf,
	})
	if err != nil {
		logger.Warn("Frozen settlement drift check failed", "settlement_id", settlement.ID, "error", err)
		return
	}
	if err := s.windowSvc.AttachActivity(ctx, window); err != nil {
		logger.Warn("Frozen settlement drift check failed", "settlement_id", settlement.ID, "error", err)
		return
	}
	stats := Aggregate(window, settlement.Expenses)
	if math.Abs(stats.ExpectedCash-settlement.ExpectedCash) > partnerMismatchTolerance ||
		math.Abs(stats.TotalSales-settlement.TotalSales) > partnerMismatchTolerance {
		logger.Error("Approved settlement diverges from underlying records",
			"settlement_id", settlement.ID,
			"frozen_expected_cash", settlement.ExpectedCash,
			"recomputed_expected_cash", stats.ExpectedCash,
			"frozen_total_sales", settlement.TotalSales,
			"recomputed_total_sales", stats.TotalSales)
	}
}

// Submit moves a DRAFT settlement to SUBMITTED, locking in a refreshed set of
// aggregates as the figures under review.
func (s *SettlementService) Submit(ctx context.Context, id, actor string) (*models.Settlement, error) {
	settlement, err := s.transition(ctx, id, func(ctx context.Context, fsm *statemachine.SettlementFSM) error {
		return fsm.Submit(ctx)
	}, true)
	if err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "SUBMIT", "Settlement", id, "", "", "")
	return settlement, nil
}

// Approve freezes the settlement: aggregates are recomputed one final time,
// the approval journal entry is posted, and the row becomes immutable. The
// row lock plus the state machine guard make double approval impossible.
func (s *SettlementService) Approve(ctx context.Context, id, approver string, actualCash float64) (*models.Settlement, error) {
	var settlement *models.Settlement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		settlementRepo := repository.NewSettlementRepository(tx)
		locked, err := settlementRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return ErrNotFound
		}
		if locked.Status == models.SettlementStatusApproved {
			return ErrInvalidState
		}

		fsm := statemachine.NewSettlementFSM(locked)
		if err := fsm.Approve(ctx); err != nil {
			return ErrInvalidState
		}

		full, err := settlementRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		locked.Expenses = full.Expenses

		if err := s.recomputeLocked(ctx, tx, locked, actualCash, nil); err != nil {
			return err
		}

		now := time.Now()
		locked.Status = models.SettlementStatusApproved
		locked.ApprovedAt = &now
		locked.ApprovedBy = &approver
		if err := settlementRepo.Update(ctx, locked); err != nil {
			return err
		}

		if err := s.postApprovalJournal(ctx, tx, locked); err != nil {
			return err
		}

		settlement = locked
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Log(ctx, approver, "APPROVE", "Settlement", id,
		fmt.Sprintf("expected %.2f actual %.2f", settlement.ExpectedCash, settlement.ActualCash), "", "")
	return settlement, nil
}

// postApprovalJournal writes the balanced double entry for an approved
// settlement: actual cash and declared expenses come in as debits, a cash
// shortfall is debited to the shortage account (an overage credits it), and
// the van custody account is relieved for the full amount.
func (s *SettlementService) postApprovalJournal(ctx context.Context, tx *gorm.DB, settlement *models.Settlement) error {
	accountRepo := repository.NewAccountRepository(tx)

	cashAcc, err := accountRepo.FindByCode(ctx, AccountCodeCashOnHand)
	if err != nil {
		return fmt.Errorf("cash account %s missing: %w", AccountCodeCashOnHand, err)
	}
	custodyAcc, err := accountRepo.FindByCode(ctx, AccountCodeVanCustody)
	if err != nil {
		return fmt.Errorf("custody account %s missing: %w", AccountCodeVanCustody, err)
	}
	expenseAcc, err := accountRepo.FindByCode(ctx, AccountCodeVanExpenses)
	if err != nil {
		return fmt.Errorf("expense account %s missing: %w", AccountCodeVanExpenses, err)
	}
	shortageAcc, err := accountRepo.FindByCode(ctx, AccountCodeCashShortage)
	if err != nil {
		return fmt.Errorf("shortage account %s missing: %w", AccountCodeCashShortage, err)
	}

	entry := buildApprovalJournal(settlement, cashAcc.ID, expenseAcc.ID, shortageAcc.ID, custodyAcc.ID)
	if entry == nil {
		return nil
	}
	return repository.NewJournalRepository(tx).CreateEntry(ctx, entry)
}

// buildApprovalJournal assembles the double entry for an approved settlement.
// Debits (cash received, declared expenses, any shortfall) always equal the
// custody credit, because expectedCash already has expenses subtracted.
// Returns nil for an all-zero settlement.
func buildApprovalJournal(settlement *models.Settlement, cashID, expenseID, shortageID, custodyID string) *models.JournalEntry {
	entry := &models.JournalEntry{
		ID:          uuid.NewString(),
		Date:        settlement.CutoffTime(),
		Description: fmt.Sprintf("Settlement %s approval, vehicle %s", settlement.ID, settlement.VehicleID),
		ReferenceID: &settlement.ID,
	}

	if settlement.ActualCash != 0 {
		entry.Lines = append(entry.Lines, models.JournalLine{
			AccountID: cashID, Debit: settlement.ActualCash,
		})
	}
	for _, expense := range settlement.Expenses {
		if expense.Amount == 0 {
			continue
		}
		entry.Lines = append(entry.Lines, models.JournalLine{
			AccountID: expenseID, Debit: expense.Amount,
		})
	}
	shortfall := round2f(settlement.ExpectedCash - settlement.ActualCash)
	if shortfall > 0 {
		entry.Lines = append(entry.Lines, models.JournalLine{
			AccountID: shortageID, Debit: shortfall,
		})
	} else if shortfall < 0 {
		entry.Lines = append(entry.Lines, models.JournalLine{
			AccountID: shortageID, Credit: -shortfall,
		})
	}

	custody := round2f(settlement.ExpectedCash + settlement.TotalExpenses)
	if custody != 0 {
		entry.Lines = append(entry.Lines, models.JournalLine{
			AccountID: custodyID, Credit: custody,
		})
	}
	if len(entry.Lines) == 0 {
		return nil
	}
	for i := range entry.Lines {
		entry.Lines[i].JournalID = entry.ID
	}
	return entry
}

// Dispute flags a SUBMITTED settlement for correction, recording the reason.
func (s *SettlementService) Dispute(ctx context.Context, id, reason, actor string) (*models.Settlement, error) {
	settlement, err := s.transition(ctx, id, func(ctx context.Context, fsm *statemachine.SettlementFSM) error {
		return fsm.Dispute(ctx)
	}, false)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		settlement.DisputeReason = &reason
		return repository.NewSettlementRepository(tx).Update(ctx, settlement)
	})
	if err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "DISPUTE", "Settlement", id, reason, "", "")
	return settlement, nil
}

// Reopen returns a DISPUTED settlement to DRAFT so its window can be
// recomputed and resubmitted.
func (s *SettlementService) Reopen(ctx context.Context, id, actor string) (*models.Settlement, error) {
	settlement, err := s.transition(ctx, id, func(ctx context.Context, fsm *statemachine.SettlementFSM) error {
		return fsm.Reopen(ctx)
	}, true)
	if err != nil {
		return nil, err
	}
	s.auditSvc.Log(ctx, actor, "REOPEN", "Settlement", id, "", "", "")
	return settlement, nil
}

// transition runs an FSM event under a row lock and optionally refreshes
// aggregates afterwards.
func (s *SettlementService) transition(ctx context.Context, id string, event func(context.Context, *statemachine.SettlementFSM) error, recompute bool) (*models.Settlement, error) {
	var settlement *models.Settlement
	err := s.db.Transaction(func(tx *gorm.DB) error {
		settlementRepo := repository.NewSettlementRepository(tx)
		locked, err := settlementRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return ErrNotFound
		}

		fsm := statemachine.NewSettlementFSM(locked)
		if err := event(ctx, fsm); err != nil {
			return ErrInvalidState
		}

		if recompute {
			full, err := settlementRepo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			locked.Expenses = full.Expenses
			if err := s.recomputeLocked(ctx, tx, locked, locked.ActualCash, nil); err != nil {
				return err
			}
		} else if err := settlementRepo.Update(ctx, locked); err != nil {
			return err
		}

		settlement = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// Delete abandons a DRAFT settlement. Anything past DRAFT is part of the
// audit trail and can only be removed by the duplicate merge procedure.
func (s *SettlementService) Delete(ctx context.Context, id, actor string) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		settlementRepo := repository.NewSettlementRepository(tx)
		settlement, err := settlementRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return ErrNotFound
		}
		if !settlement.MayDelete() {
			return ErrInvalidState
		}
		return settlementRepo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.auditSvc.Log(ctx, actor, "DELETE", "Settlement", id, "", "", "")
	return nil
}

// List retrieves settlements filtered by status and date range.
func (s *SettlementService) List(ctx context.Context, status string, from, to *time.Time) ([]models.Settlement, error) {
	return s.settlementRepo.List(ctx, status, from, to)
}

// ListByVehicle retrieves a vehicle's settlements, newest first.
func (s *SettlementService) ListByVehicle(ctx context.Context, vehicleID, status string) ([]models.Settlement, error) {
	return s.settlementRepo.FindByVehicle(ctx, vehicleID, status)
}
