package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/repository"
	"github.com/vanledger/vanledger-api/pkg/logger"
)

var knownTransactionTypes = map[string]bool{
	models.TxnInvoiceSale:     true,
	models.TxnInvoicePurchase: true,
	models.TxnReturnSale:      true,
	models.TxnReturnPurchase:  true,
	models.TxnReceipt:         true,
	models.TxnPayment:         true,
	models.TxnDiscountAllowed: true,
	models.TxnDiscountEarned:  true,
	models.TxnChequeDeposit:   true,
	models.TxnChequeCollect:   true,
	models.TxnChequeCashed:    true,
	models.TxnChequeBounce:    true,
}

// SyncOutcome reports the fate of one uploaded transaction.
type SyncOutcome struct {
	ID     string `json:"id"`
	Status string `json:"status"` // accepted, duplicate, rejected
	Error  string `json:"error,omitempty"`
}

// TransactionService ingests transactions from offline clients. It assigns
// the server-side arrival timestamp every settlement window is cut on, so
// SyncedAt must be strictly monotonic even when the wall clock stalls or
// steps backwards.
type TransactionService struct {
	db       *gorm.DB
	txnRepo  repository.TransactionRepository
	auditSvc *AuditService

	mu         sync.Mutex
	lastSynced time.Time
}

// NewTransactionService creates a new transaction service
func NewTransactionService(db *gorm.DB, txnRepo repository.TransactionRepository, auditSvc *AuditService) *TransactionService {
	return &TransactionService{
		db:       db,
		txnRepo:  txnRepo,
		auditSvc: auditSvc,
	}
}

// nextSyncedAt hands out strictly increasing arrival timestamps. Seeded from
// the database on first use so monotonicity survives restarts.
func (s *TransactionService) nextSyncedAt(ctx context.Context) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastSynced.IsZero() {
		latest, err := s.txnRepo.LatestSyncedAt(ctx)
		if err != nil {
			return time.Time{}, err
		}
		if latest != nil {
			s.lastSynced = *latest
		}
	}

	now := time.Now()
	if !now.After(s.lastSynced) {
		now = s.lastSynced.Add(time.Microsecond)
	}
	s.lastSynced = now
	return now, nil
}

// Post ingests one transaction. The client supplies the ID so retries of the
// same upload collapse into one row; a replay returns ErrDuplicate and the
// stored row is left untouched. BusinessDate stays whatever the client
// reported; SyncedAt is always assigned here.
func (s *TransactionService) Post(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if !knownTransactionTypes[txn.Type] {
		return fmt.Errorf("unknown transaction type %q", txn.Type)
	}
	if txn.BusinessDate.IsZero() {
		return fmt.Errorf("business date is required")
	}

	syncedAt, err := s.nextSyncedAt(ctx)
	if err != nil {
		return err
	}
	txn.SyncedAt = syncedAt
	txn.Status = models.TransactionStatusPosted

	if err := s.txnRepo.CreateIdempotent(ctx, txn); err != nil {
		if err == repository.ErrDuplicateTransaction {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Sync ingests a batch upload, one outcome per item. Duplicates are a normal
// consequence of retrying clients and never abort the batch.
func (s *TransactionService) Sync(ctx context.Context, txns []models.Transaction) []SyncOutcome {
	outcomes := make([]SyncOutcome, 0, len(txns))
	for i := range txns {
		outcome := SyncOutcome{ID: txns[i].ID, Status: "accepted"}
		switch err := s.Post(ctx, &txns[i]); {
		case err == ErrDuplicate:
			outcome.Status = "duplicate"
		case err != nil:
			outcome.Status = "rejected"
			outcome.Error = err.Error()
		default:
			outcome.ID = txns[i].ID
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Get retrieves a transaction by ID
func (s *TransactionService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	txn, err := s.txnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return txn, nil
}

// Reverse corrects a posted transaction. The original row is never edited:
// a negating counter-transaction is posted with its own arrival timestamp and
// the original is marked VOID, so any settlement window sees either both rows
// or the original alone, never a mutated one.
func (s *TransactionService) Reverse(ctx context.Context, id, actor, reason string) (*models.Transaction, error) {
	origin, err := s.txnRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if origin.Status != models.TransactionStatusPosted {
		return nil, ErrInvalidState
	}

	reversal := &models.Transaction{
		ID:                     uuid.NewString(),
		Number:                 origin.Number + "-REV",
		Type:                   origin.Type,
		Total:                  -origin.Total,
		Discount:               -origin.Discount,
		GlobalDiscount:         -origin.GlobalDiscount,
		WhtAmount:              -origin.WhtAmount,
		PaymentMethod:          origin.PaymentMethod,
		BusinessDate:           origin.BusinessDate,
		PartnerID:              origin.PartnerID,
		VehicleID:              origin.VehicleID,
		SalesmanID:             origin.SalesmanID,
		ReferenceTransactionID: &origin.ID,
		Notes:                  reason,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		txnRepo := repository.NewTransactionRepository(tx)

		syncedAt, err := s.nextSyncedAt(ctx)
		if err != nil {
			return err
		}
		reversal.SyncedAt = syncedAt
		reversal.Status = models.TransactionStatusPosted

		if err := txnRepo.CreateIdempotent(ctx, reversal); err != nil {
			return err
		}
		return txnRepo.UpdateStatus(ctx, origin.ID, models.TransactionStatusVoid)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Transaction reversed", "origin", origin.ID, "reversal", reversal.ID)
	s.auditSvc.Log(ctx, actor, "REVERSE", "Transaction", origin.ID, reason, "", "")
	return reversal, nil
}
