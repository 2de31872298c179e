package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/repository"
)

// Mock AccountRepository
type mockAccountRepository struct {
	repository.AccountRepository
	mockFindAll       func(ctx context.Context) ([]models.Account, error)
	mockUpdateBalance func(ctx context.Context, id string, balance float64) error
	updates           map[string]float64
}

func (m *mockAccountRepository) FindAll(ctx context.Context) ([]models.Account, error) {
	return m.mockFindAll(ctx)
}

func (m *mockAccountRepository) UpdateBalance(ctx context.Context, id string, balance float64) error {
	if m.updates == nil {
		m.updates = map[string]float64{}
	}
	m.updates[id] = balance
	if m.mockUpdateBalance != nil {
		return m.mockUpdateBalance(ctx, id, balance)
	}
	return nil
}

// Mock PartnerRepository
type mockPartnerRepository struct {
	repository.PartnerRepository
	partner *models.Partner
	updated *float64
}

func (m *mockPartnerRepository) FindByID(ctx context.Context, id string) (*models.Partner, error) {
	return m.partner, nil
}

func (m *mockPartnerRepository) UpdateBalance(ctx context.Context, id string, balance float64) error {
	m.updated = &balance
	return nil
}

// Mock TransactionRepository
type mockTransactionRepository struct {
	repository.TransactionRepository
	txns []models.Transaction
}

func (m *mockTransactionRepository) FindPostedByPartner(ctx context.Context, partnerID string) ([]models.Transaction, error) {
	return m.txns, nil
}

// Mock JournalRepository
type mockJournalRepository struct {
	repository.JournalRepository
	movements []repository.AccountMovement
}

func (m *mockJournalRepository) SumLinesByAccount(ctx context.Context) ([]repository.AccountMovement, error) {
	return m.movements, nil
}

func TestDeriveAccountBalance_DebitNormal(t *testing.T) {
	account := &models.Account{ID: "a1", Type: models.AccountTypeAsset, OpeningBalance: 1000}
	movement := repository.AccountMovement{AccountID: "a1", TotalDebit: 250, TotalCredit: 100}

	assert.Equal(t, 1150.0, DeriveAccountBalance(account, movement))
}

func TestDeriveAccountBalance_CreditNormal(t *testing.T) {
	account := &models.Account{ID: "a2", Type: models.AccountTypeLiability, OpeningBalance: 1000}
	movement := repository.AccountMovement{AccountID: "a2", TotalDebit: 250, TotalCredit: 100}

	assert.Equal(t, 850.0, DeriveAccountBalance(account, movement))
}

func TestDeriveAccountBalance_ExpenseGrowsWithDebits(t *testing.T) {
	account := &models.Account{ID: "a3", Type: models.AccountTypeExpense, OpeningBalance: 0}
	movement := repository.AccountMovement{AccountID: "a3", TotalDebit: 75.25, TotalCredit: 10}

	assert.Equal(t, 65.25, DeriveAccountBalance(account, movement))
}

func TestRecalculateAccountBalances_OnlyDriftedRowsUpdated(t *testing.T) {
	accountRepo := &mockAccountRepository{
		mockFindAll: func(ctx context.Context) ([]models.Account, error) {
			return []models.Account{
				{ID: "cash", Type: models.AccountTypeAsset, OpeningBalance: 0, Balance: 500}, // already correct
				{ID: "rev", Type: models.AccountTypeRevenue, OpeningBalance: 0, Balance: 100}, // drifted
			}, nil
		},
	}
	journalRepo := &mockJournalRepository{
		movements: []repository.AccountMovement{
			{AccountID: "cash", TotalDebit: 500, TotalCredit: 0},
			{AccountID: "rev", TotalDebit: 0, TotalCredit: 500},
		},
	}

	svc := NewLedgerService(accountRepo, &mockPartnerRepository{}, &mockTransactionRepository{}, journalRepo)
	result, err := svc.RecalculateAccountBalances(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, result.AccountsScanned)
	assert.Equal(t, 1, result.AccountsUpdated)
	assert.Equal(t, 500.0, accountRepo.updates["rev"])
	_, cashTouched := accountRepo.updates["cash"]
	assert.False(t, cashTouched)
}

func TestFoldPartnerBalance_CustomerSignTable(t *testing.T) {
	customer := &models.Partner{ID: "p1", IsCustomer: true, OpeningBalance: 0}
	txns := []models.Transaction{
		{Type: models.TxnInvoiceSale, Total: 1000, WhtAmount: 30}, // +970 net of WHT
		{Type: models.TxnReceipt, Total: 400},                    // -400
		{Type: models.TxnReturnSale, Total: 100},                 // -100
		{Type: models.TxnDiscountAllowed, Total: 20},             // -20
		{Type: models.TxnChequeDeposit, Total: 50},               // -50
		{Type: models.TxnChequeCollect, Total: 50},               // -50
	}

	assert.Equal(t, 350.0, FoldPartnerBalance(customer, txns))
}

func TestFoldPartnerBalance_SupplierSignTable(t *testing.T) {
	supplier := &models.Partner{ID: "p2", IsSupplier: true, OpeningBalance: 0}
	txns := []models.Transaction{
		{Type: models.TxnInvoicePurchase, Total: 800}, // -800 we owe them
		{Type: models.TxnPayment, Total: 300},         // +300
		{Type: models.TxnReturnPurchase, Total: 50},   // +50
		{Type: models.TxnDiscountEarned, Total: 10},   // +10
		{Type: models.TxnChequeCashed, Total: 100},    // +100
	}

	assert.Equal(t, -340.0, FoldPartnerBalance(supplier, txns))
}

func TestFoldPartnerBalance_ChequeBounceFollowsRole(t *testing.T) {
	customer := &models.Partner{ID: "c", IsCustomer: true}
	supplier := &models.Partner{ID: "s", IsSupplier: true}
	bounce := []models.Transaction{{Type: models.TxnChequeBounce, Total: 200}}

	assert.Equal(t, 200.0, FoldPartnerBalance(customer, bounce), "customer owes us again")
	assert.Equal(t, -200.0, FoldPartnerBalance(supplier, bounce), "we owe the supplier again")
}

func TestFoldPartnerBalance_BothRolePartnerCombinesSubLedgers(t *testing.T) {
	both := &models.Partner{ID: "b", IsCustomer: true, IsSupplier: true, OpeningBalance: 100}
	txns := []models.Transaction{
		{Type: models.TxnInvoiceSale, Total: 500},     // +500
		{Type: models.TxnInvoicePurchase, Total: 200}, // -200
		{Type: models.TxnReceipt, Total: 100},         // -100
		{Type: models.TxnPayment, Total: 50},          // +50
	}

	assert.Equal(t, 350.0, FoldPartnerBalance(both, txns))
}

func TestFoldPartnerBalance_SkipsUnknownTypes(t *testing.T) {
	customer := &models.Partner{ID: "p", IsCustomer: true, OpeningBalance: 10}
	txns := []models.Transaction{
		{Type: "SOMETHING_NEW", Total: 9999},
		{Type: models.TxnInvoiceSale, Total: 100},
	}

	assert.Equal(t, 110.0, FoldPartnerBalance(customer, txns))
}

func TestFoldPartnerBalance_Idempotent(t *testing.T) {
	customer := &models.Partner{ID: "p", IsCustomer: true}
	txns := []models.Transaction{
		{Type: models.TxnInvoiceSale, Total: 123.45},
		{Type: models.TxnReceipt, Total: 23.45},
	}

	first := FoldPartnerBalance(customer, txns)
	second := FoldPartnerBalance(customer, txns)
	assert.Equal(t, first, second)
	assert.Equal(t, 100.0, first)
}

func TestDerivePartnerBalance_RefreshesDriftedCache(t *testing.T) {
	partnerRepo := &mockPartnerRepository{
		partner: &models.Partner{ID: "p1", IsCustomer: true, OpeningBalance: 0, Balance: 999},
	}
	txnRepo := &mockTransactionRepository{
		txns: []models.Transaction{
			{Type: models.TxnInvoiceSale, Total: 500, SyncedAt: time.Now()},
		},
	}

	svc := NewLedgerService(&mockAccountRepository{}, partnerRepo, txnRepo, &mockJournalRepository{})
	balance, err := svc.DerivePartnerBalance(context.Background(), "p1")

	assert.NoError(t, err)
	assert.Equal(t, 500.0, balance)
	if assert.NotNil(t, partnerRepo.updated) {
		assert.Equal(t, 500.0, *partnerRepo.updated)
	}
}
