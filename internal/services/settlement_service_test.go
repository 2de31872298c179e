package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/repository"
)

type frozenSettlementRepo struct {
	repository.SettlementRepository
	stored      *models.Settlement
	updateCalls int
}

func (m *frozenSettlementRepo) FindByID(ctx context.Context, id string) (*models.Settlement, error) {
	return m.stored, nil
}

func (m *frozenSettlementRepo) Update(ctx context.Context, settlement *models.Settlement) error {
	m.updateCalls++
	return nil
}

// An APPROVED settlement is the historical record: it is served verbatim even
// after the transactions underneath it were deleted, and a read never writes.
func TestGet_FrozenSettlementSurvivesDeletedTransactions(t *testing.T) {
	approvedAt := day(17, 0)
	stored := &models.Settlement{
		ID: "s1", VehicleID: "v1",
		SettlementDate: day(0, 0),
		Status:         models.SettlementStatusApproved,
		ApprovedAt:     &approvedAt,
		CreatedAt:      day(16, 0),
		TotalSales:     999,
		CashCollected:  999,
		ExpectedCash:   999,
		ActualCash:     999,
	}
	repo := &frozenSettlementRepo{stored: stored}

	// The underlying store is empty: every transaction the settlement was
	// built from is gone, so a recompute would say zero.
	windowSvc := newTestWindowService(
		&mockSettlementRepository{settlements: []*models.Settlement{stored}},
		&windowTxnRepo{},
		nil,
	)
	svc := &SettlementService{settlementRepo: repo, windowSvc: windowSvc}

	got, err := svc.Get(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, 999.0, got.TotalSales)
	assert.Equal(t, 999.0, got.ExpectedCash)
	assert.Equal(t, models.SettlementStatusApproved, got.Status)
	assert.Zero(t, repo.updateCalls, "drift detection must never write")
}

func journalTotals(entry *models.JournalEntry) (debits, credits float64) {
	for _, line := range entry.Lines {
		debits += line.Debit
		credits += line.Credit
	}
	return round2f(debits), round2f(credits)
}

func approvalFixture(expected, actual float64, expenses []models.SettlementExpense) *models.Settlement {
	approvedAt := day(17, 0)
	var expenseTotal float64
	for _, e := range expenses {
		expenseTotal += e.Amount
	}
	return &models.Settlement{
		ID: "s1", VehicleID: "v1",
		Status:        models.SettlementStatusApproved,
		ApprovedAt:    &approvedAt,
		ExpectedCash:  expected,
		ActualCash:    actual,
		TotalExpenses: expenseTotal,
		Expenses:      expenses,
	}
}

func TestBuildApprovalJournal_BalancedWithShortfall(t *testing.T) {
	settlement := approvalFixture(800, 750, []models.SettlementExpense{
		{Category: models.ExpenseCategoryFuel, Amount: 50},
	})

	entry := buildApprovalJournal(settlement, "cash", "expense", "shortage", "custody")

	require.NotNil(t, entry)
	debits, credits := journalTotals(entry)
	assert.Equal(t, debits, credits)
	assert.Equal(t, 850.0, credits) // custody relieved for expected + expenses

	var shortageDebit float64
	for _, line := range entry.Lines {
		if line.AccountID == "shortage" {
			shortageDebit += line.Debit
		}
	}
	assert.Equal(t, 50.0, shortageDebit)
}

func TestBuildApprovalJournal_BalancedWithOverage(t *testing.T) {
	settlement := approvalFixture(500, 520, nil)

	entry := buildApprovalJournal(settlement, "cash", "expense", "shortage", "custody")

	require.NotNil(t, entry)
	debits, credits := journalTotals(entry)
	assert.Equal(t, debits, credits)

	var overageCredit float64
	for _, line := range entry.Lines {
		if line.AccountID == "shortage" {
			overageCredit += line.Credit
			assert.Zero(t, line.Debit)
		}
	}
	assert.Equal(t, 20.0, overageCredit)
}

func TestBuildApprovalJournal_BalancedWhenExact(t *testing.T) {
	settlement := approvalFixture(600, 600, []models.SettlementExpense{
		{Category: models.ExpenseCategoryParking, Amount: 15},
		{Category: models.ExpenseCategoryFood, Amount: 25},
	})

	entry := buildApprovalJournal(settlement, "cash", "expense", "shortage", "custody")

	require.NotNil(t, entry)
	debits, credits := journalTotals(entry)
	assert.Equal(t, debits, credits)
	assert.Equal(t, 640.0, credits)
	for _, line := range entry.Lines {
		assert.NotEqual(t, "shortage", line.AccountID, "no shortage line when cash matches")
	}
}

func TestBuildApprovalJournal_EmptySettlement(t *testing.T) {
	settlement := approvalFixture(0, 0, nil)
	assert.Nil(t, buildApprovalJournal(settlement, "cash", "expense", "shortage", "custody"))
}

func TestBuildApprovalJournal_LinesCarryEntryReference(t *testing.T) {
	settlement := approvalFixture(100, 100, nil)

	entry := buildApprovalJournal(settlement, "cash", "expense", "shortage", "custody")

	require.NotNil(t, entry)
	require.NotNil(t, entry.ReferenceID)
	assert.Equal(t, settlement.ID, *entry.ReferenceID)
	assert.Equal(t, settlement.CutoffTime(), entry.Date)
	for _, line := range entry.Lines {
		assert.Equal(t, entry.ID, line.JournalID)
	}
}
