package services

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/repository"
	"github.com/vanledger/vanledger-api/pkg/logger"
)

// balanceDriftTolerance is the maximum absolute difference between a stored
// balance and its recomputed value before the stored row is rewritten.
// Differences at or below this are float noise, not drift.
const balanceDriftTolerance = 0.001

// partnerMismatchTolerance is the threshold above which a stored partner
// balance diverging from its derivation is reported as drift.
const partnerMismatchTolerance = 0.01

// LedgerService derives account and partner balances from their underlying
// records. Stored balance columns are caches; this service is the single
// writer that refreshes them.
type LedgerService struct {
	accountRepo repository.AccountRepository
	partnerRepo repository.PartnerRepository
	txnRepo     repository.TransactionRepository
	journalRepo repository.JournalRepository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(
	accountRepo repository.AccountRepository,
	partnerRepo repository.PartnerRepository,
	txnRepo repository.TransactionRepository,
	journalRepo repository.JournalRepository,
) *LedgerService {
	return &LedgerService{
		accountRepo: accountRepo,
		partnerRepo: partnerRepo,
		txnRepo:     txnRepo,
		journalRepo: journalRepo,
	}
}

// RecalculateResult summarizes a full account balance recompute.
type RecalculateResult struct {
	AccountsScanned int `json:"accounts_scanned"`
	AccountsUpdated int `json:"accounts_updated"`
}

// RecalculateAccountBalances recomputes every account balance from the
// journal in one pass: a single grouped query over journal_lines, then a fold
// per account. Updates only rows that actually drifted.
func (s *LedgerService) RecalculateAccountBalances(ctx context.Context) (*RecalculateResult, error) {
	movements, err := s.journalRepo.SumLinesByAccount(ctx)
	if err != nil {
		return nil, err
	}
	byAccount := make(map[string]repository.AccountMovement, len(movements))
	for _, m := range movements {
		byAccount[m.AccountID] = m
	}

	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	result := &RecalculateResult{AccountsScanned: len(accounts)}
	for _, account := range accounts {
		derived := DeriveAccountBalance(&account, byAccount[account.ID])
		if math.Abs(derived-account.Balance) <= balanceDriftTolerance {
			continue
		}
		logger.Info("Account balance drift corrected",
			"account_id", account.ID,
			"code", account.Code,
			"stored", account.Balance,
			"derived", derived)
		if err := s.accountRepo.UpdateBalance(ctx, account.ID, derived); err != nil {
			return result, err
		}
		result.AccountsUpdated++
	}
	return result, nil
}

// DeriveAccountBalance folds an account's journal movement into its balance.
// Debit-normal accounts (assets, expenses) grow with debits; the rest grow
// with credits. Rounded to 2 decimal places.
func DeriveAccountBalance(account *models.Account, movement repository.AccountMovement) float64 {
	opening := decimal.NewFromFloat(account.OpeningBalance)
	debit := decimal.NewFromFloat(movement.TotalDebit)
	credit := decimal.NewFromFloat(movement.TotalCredit)

	var balance decimal.Decimal
	if account.DebitNormal() {
		balance = opening.Add(debit).Sub(credit)
	} else {
		balance = opening.Add(credit).Sub(debit)
	}
	f, _ := balance.Round(2).Float64()
	return f
}

// DerivePartnerBalance recomputes a partner's balance from the full history
// of its posted transactions, refreshes the stored cache when it drifted, and
// returns the derived value. Positive means the partner owes us.
func (s *LedgerService) DerivePartnerBalance(ctx context.Context, partnerID string) (float64, error) {
	partner, err := s.partnerRepo.FindByID(ctx, partnerID)
	if err != nil {
		return 0, ErrNotFound
	}

	txns, err := s.txnRepo.FindPostedByPartner(ctx, partnerID)
	if err != nil {
		return 0, err
	}

	derived := FoldPartnerBalance(partner, txns)

	if math.Abs(derived-partner.Balance) > partnerMismatchTolerance {
		logger.Warn("Partner balance drift detected",
			"partner_id", partner.ID,
			"stored", partner.Balance,
			"derived", derived)
		if err := s.partnerRepo.UpdateBalance(ctx, partner.ID, derived); err != nil {
			return derived, err
		}
	}
	return derived, nil
}

// FoldPartnerBalance replays a partner's transaction history over its opening
// balance. A both-role partner combines its customer and supplier sub-ledgers
// into one figure.
func FoldPartnerBalance(partner *models.Partner, txns []models.Transaction) float64 {
	balance := decimal.NewFromFloat(partner.OpeningBalance)
	for i := range txns {
		delta, ok := partnerDelta(partner, &txns[i])
		if !ok {
			logger.Warn("Skipping transaction with unknown type in balance derivation",
				"transaction_id", txns[i].ID,
				"type", txns[i].Type)
			continue
		}
		balance = balance.Add(delta)
	}
	f, _ := balance.Round(2).Float64()
	return f
}

// ListAccounts returns the chart of accounts.
func (s *LedgerService) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.accountRepo.FindAll(ctx)
}

// GetAccount retrieves one account by ID.
func (s *LedgerService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return account, nil
}

// CreateAccount adds an account to the chart.
func (s *LedgerService) CreateAccount(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.Balance = account.OpeningBalance
	return s.accountRepo.Create(ctx, account)
}

// ListPartners returns partners, optionally filtered by role.
func (s *LedgerService) ListPartners(ctx context.Context, role string) ([]models.Partner, error) {
	return s.partnerRepo.FindAll(ctx, role)
}

// GetPartner retrieves one partner by ID.
func (s *LedgerService) GetPartner(ctx context.Context, id string) (*models.Partner, error) {
	partner, err := s.partnerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return partner, nil
}

// CreatePartner registers a trading partner.
func (s *LedgerService) CreatePartner(ctx context.Context, partner *models.Partner) error {
	if partner.ID == "" {
		partner.ID = uuid.NewString()
	}
	partner.Balance = partner.OpeningBalance
	return s.partnerRepo.Create(ctx, partner)
}

// UpdatePartner updates a partner's master data.
func (s *LedgerService) UpdatePartner(ctx context.Context, partner *models.Partner) error {
	return s.partnerRepo.Update(ctx, partner)
}

// partnerDelta returns the signed contribution of one transaction to the
// partner balance. Sale invoices contribute net of withholding tax; every
// other type contributes its gross total. Returns ok=false for types the
// ledger does not know how to sign.
func partnerDelta(partner *models.Partner, txn *models.Transaction) (decimal.Decimal, bool) {
	total := decimal.NewFromFloat(txn.Total)

	switch txn.Type {
	// customer sub-ledger
	case models.TxnInvoiceSale:
		return decimal.NewFromFloat(txn.NetTotal()), true
	case models.TxnReturnSale, models.TxnReceipt, models.TxnDiscountAllowed,
		models.TxnChequeDeposit, models.TxnChequeCollect:
		return total.Neg(), true

	// supplier sub-ledger
	case models.TxnInvoicePurchase:
		return total.Neg(), true
	case models.TxnReturnPurchase, models.TxnPayment, models.TxnDiscountEarned,
		models.TxnChequeCashed:
		return total, true

	// A bounced cheque reverses the settlement it stood for, so its sign
	// follows the partner's role, not the transaction type: the customer owes
	// us again (+), we owe the supplier again (−).
	case models.TxnChequeBounce:
		if partner.IsSupplier {
			return total.Neg(), true
		}
		return total, true
	}

	return decimal.Zero, false
}
