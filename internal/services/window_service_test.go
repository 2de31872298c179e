package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/repository"
)

// mockSettlementRepository mimics the cutoff queries over an in-memory set:
// status filter, exclusion, strictly-older-than bound, latest-first ranking.
type mockSettlementRepository struct {
	repository.SettlementRepository
	settlements []*models.Settlement
}

func (m *mockSettlementRepository) FindLatestBounding(ctx context.Context, vehicleID, excludeID string, before time.Time) (*models.Settlement, error) {
	return m.latest(before, excludeID, models.SettlementStatusApproved, models.SettlementStatusSubmitted), nil
}

func (m *mockSettlementRepository) FindLatestApproved(ctx context.Context, vehicleID string, before time.Time) (*models.Settlement, error) {
	return m.latest(before, "", models.SettlementStatusApproved), nil
}

func (m *mockSettlementRepository) latest(before time.Time, excludeID string, statuses ...string) *models.Settlement {
	var best *models.Settlement
	for _, s := range m.settlements {
		if s.ID == excludeID || !s.CutoffTime().Before(before) {
			continue
		}
		match := false
		for _, status := range statuses {
			if s.Status == status {
				match = true
			}
		}
		if !match {
			continue
		}
		if best == nil || s.CutoffTime().After(best.CutoffTime()) {
			best = s
		}
	}
	return best
}

// windowTxnRepo mimics the arrival-time range filter the real query applies.
type windowTxnRepo struct {
	repository.TransactionRepository
	txns []models.Transaction
}

func (m *windowTxnRepo) FindPostedForVehicle(ctx context.Context, vehicleID string, since, until *time.Time) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, txn := range m.txns {
		if since != nil && !txn.SyncedAt.After(*since) {
			continue
		}
		if until != nil && txn.SyncedAt.After(*until) {
			continue
		}
		out = append(out, txn)
	}
	return out, nil
}

// Mock VehicleRepository
type mockVehicleRepository struct {
	repository.VehicleRepository
	vehicle *models.Vehicle
	visits  []models.CustomerVisit
	returns []models.VehicleReturn
}

func (m *mockVehicleRepository) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	return m.vehicle, nil
}

func (m *mockVehicleRepository) FindVisits(ctx context.Context, vehicleID string, since, until *time.Time) ([]models.CustomerVisit, error) {
	return m.visits, nil
}

func (m *mockVehicleRepository) FindReturns(ctx context.Context, vehicleID string, since, until *time.Time) ([]models.VehicleReturn, error) {
	return m.returns, nil
}

func day(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func newTestWindowService(settlements *mockSettlementRepository, txns *windowTxnRepo, vehicles *mockVehicleRepository) *WindowService {
	if vehicles == nil {
		vehicles = &mockVehicleRepository{vehicle: &models.Vehicle{ID: "v1"}}
	}
	return NewWindowService(settlements, txns, vehicles)
}

func approvedSettlement(id string, approvedAt, createdAt time.Time) *models.Settlement {
	return &models.Settlement{
		ID: id, VehicleID: "v1",
		Status:     models.SettlementStatusApproved,
		ApprovedAt: &approvedAt,
		CreatedAt:  createdAt,
	}
}

// A transaction logically dated before the cutoff but received after it must
// land in the next period, not the closed one.
func TestComputeWindow_LateSyncDeferral(t *testing.T) {
	prior := approvedSettlement("s0", day(10, 0), day(9, 45))
	late := models.Transaction{
		ID: "t-late", Type: models.TxnInvoiceSale, Total: 500, Discount: 50,
		BusinessDate: day(9, 30), SyncedAt: day(10, 10),
		Status: models.TransactionStatusPosted,
	}

	svc := newTestWindowService(
		&mockSettlementRepository{settlements: []*models.Settlement{prior}},
		&windowTxnRepo{txns: []models.Transaction{late}},
		nil,
	)

	// Period A closed at the 10:00 cutoff: the late row is invisible.
	windowA, err := svc.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{
		ExcludeID: "sA", AsOf: day(10, 0),
	})
	require.NoError(t, err)
	assert.Empty(t, windowA.Transactions)
	statsA := Aggregate(windowA, nil)
	assert.Equal(t, 0.0, statsA.TotalDiscounts)

	// Period B spans (10:00, 12:00]: the late row belongs here.
	windowB, err := svc.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{
		ExcludeID: "sB", AsOf: day(12, 0),
	})
	require.NoError(t, err)
	require.Len(t, windowB.Transactions, 1)
	statsB := Aggregate(windowB, nil)
	assert.Equal(t, 50.0, statsB.TotalDiscounts)
	assert.Equal(t, 500.0, statsB.TotalSales)
}

// Two consecutive windows over the same stream must partition it: every row
// lands in exactly one of them.
func TestComputeWindow_NonOverlap(t *testing.T) {
	prior := approvedSettlement("s0", day(10, 0), day(9, 0))
	txns := []models.Transaction{
		{ID: "t1", Type: models.TxnInvoiceSale, Total: 100, BusinessDate: day(9, 0), SyncedAt: day(9, 30)},
		{ID: "t2", Type: models.TxnInvoiceSale, Total: 200, BusinessDate: day(9, 0), SyncedAt: day(10, 0)}, // exactly at cutoff: left window
		{ID: "t3", Type: models.TxnInvoiceSale, Total: 300, BusinessDate: day(10, 0), SyncedAt: day(10, 1)},
	}

	// Left window: open start through the cutoff.
	left := newTestWindowService(
		&mockSettlementRepository{},
		&windowTxnRepo{txns: txns},
		nil,
	)
	windowLeft, err := left.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{AsOf: day(10, 0)})
	require.NoError(t, err)

	// Right window: strictly after the cutoff.
	right := newTestWindowService(
		&mockSettlementRepository{settlements: []*models.Settlement{prior}},
		&windowTxnRepo{txns: txns},
		nil,
	)
	windowRight, err := right.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{AsOf: day(12, 0)})
	require.NoError(t, err)

	seen := map[string]int{}
	for _, txn := range windowLeft.Transactions {
		seen[txn.ID]++
	}
	for _, txn := range windowRight.Transactions {
		seen[txn.ID]++
	}
	assert.Equal(t, map[string]int{"t1": 1, "t2": 1, "t3": 1}, seen)
}

func TestComputeWindow_CutoffUsesCreatedAtWhenNotApproved(t *testing.T) {
	prior := &models.Settlement{
		ID: "s0", VehicleID: "v1",
		Status:    models.SettlementStatusSubmitted,
		CreatedAt: day(11, 0),
	}
	svc := newTestWindowService(
		&mockSettlementRepository{settlements: []*models.Settlement{prior}},
		&windowTxnRepo{},
		nil,
	)

	window, err := svc.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{AsOf: day(12, 0)})
	require.NoError(t, err)
	require.NotNil(t, window.Cutoff)
	assert.Equal(t, day(11, 0), *window.Cutoff)
}

func TestComputeWindow_ExcludesOwnSettlementFromCutoffSearch(t *testing.T) {
	self := &models.Settlement{
		ID: "sA", VehicleID: "v1",
		Status:    models.SettlementStatusSubmitted,
		CreatedAt: day(11, 0),
	}
	svc := newTestWindowService(
		&mockSettlementRepository{settlements: []*models.Settlement{self}},
		&windowTxnRepo{},
		nil,
	)

	window, err := svc.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{
		ExcludeID: "sA", AsOf: day(12, 0),
	})
	require.NoError(t, err)
	assert.Nil(t, window.Cutoff, "a settlement must not bound its own window")
}

// Recomputing a historical period while later settlements exist must pick the
// cutoff from before that period, not the fleet-latest row, or the window
// inverts and comes back empty.
func TestComputeWindow_CutoffStrictlyBeforeAsOf(t *testing.T) {
	older := approvedSettlement("s0", day(9, 0), day(8, 30))
	newer := approvedSettlement("s2", day(18, 0), day(17, 30))
	inWindow := models.Transaction{
		ID: "t1", Type: models.TxnInvoiceSale, Total: 250,
		BusinessDate: day(9, 15), SyncedAt: day(9, 30),
	}

	svc := newTestWindowService(
		&mockSettlementRepository{settlements: []*models.Settlement{older, newer}},
		&windowTxnRepo{txns: []models.Transaction{inWindow}},
		nil,
	)

	// Recompute s1 (approved 10:00) as of its own approval time.
	window, err := svc.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{
		ExcludeID: "s1", AsOf: day(10, 0),
	})
	require.NoError(t, err)
	require.NotNil(t, window.Cutoff)
	assert.Equal(t, day(9, 0), *window.Cutoff)
	assert.True(t, window.Cutoff.Before(window.AsOf), "cutoff must precede the right edge")
	require.Len(t, window.Transactions, 1)
	assert.Equal(t, "t1", window.Transactions[0].ID)
}

func TestComputeWindow_SalesmanMismatchSurfacedNotAggregated(t *testing.T) {
	assigned := "sm-1"
	other := "sm-2"
	vehicles := &mockVehicleRepository{
		vehicle: &models.Vehicle{ID: "v1", SalesmanID: &assigned},
	}
	txns := []models.Transaction{
		{ID: "mine", Type: models.TxnInvoiceSale, Total: 100, BusinessDate: day(9, 0), SyncedAt: day(9, 5), SalesmanID: &assigned},
		{ID: "theirs", Type: models.TxnInvoiceSale, Total: 999, BusinessDate: day(9, 0), SyncedAt: day(9, 6), SalesmanID: &other},
	}
	svc := newTestWindowService(&mockSettlementRepository{}, &windowTxnRepo{txns: txns}, vehicles)

	window, err := svc.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{AsOf: day(12, 0)})
	require.NoError(t, err)
	require.Len(t, window.Transactions, 1)
	assert.Equal(t, "mine", window.Transactions[0].ID)
	require.Len(t, window.SalesmanMismatches, 1)
	assert.Equal(t, "theirs", window.SalesmanMismatches[0].ID)

	stats := Aggregate(window, nil)
	assert.Equal(t, 100.0, stats.TotalSales)
}

func TestComputeWindow_BusinessDateFilterSkippedInMergeMode(t *testing.T) {
	txns := []models.Transaction{
		{ID: "d1", Type: models.TxnInvoiceSale, Total: 100, BusinessDate: day(9, 0), SyncedAt: day(9, 5)},
		{ID: "d2", Type: models.TxnInvoiceSale, Total: 200, BusinessDate: day(9, 0).AddDate(0, 0, -1), SyncedAt: day(9, 6)},
	}
	repo := &mockSettlementRepository{}
	svc := newTestWindowService(repo, &windowTxnRepo{txns: txns}, nil)

	normal, err := svc.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{AsOf: day(12, 0)})
	require.NoError(t, err)
	assert.Len(t, normal.Transactions, 1)

	merged, err := svc.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{
		AsOf: day(12, 0), IgnoreCutoffDate: true,
	})
	require.NoError(t, err)
	assert.Len(t, merged.Transactions, 2)
}

// A vehicle's first settlement has an open left edge; visits and returns from
// earlier days must still stay out of it.
func TestAttachActivity_FilteredToSettlementDate(t *testing.T) {
	weekAgo := day(9, 0).AddDate(0, 0, -7)
	vehicles := &mockVehicleRepository{
		vehicle: &models.Vehicle{ID: "v1"},
		visits: []models.CustomerVisit{
			{ID: "old-visit", VehicleID: "v1", VisitDate: weekAgo, CreatedAt: weekAgo, Result: models.VisitResultSale},
			{ID: "today", VehicleID: "v1", VisitDate: day(9, 30), CreatedAt: day(9, 31), Result: models.VisitResultSale},
		},
		returns: []models.VehicleReturn{
			{ID: "old-return", VehicleID: "v1", ReturnDate: weekAgo, CreatedAt: weekAgo, TotalValue: 300},
		},
	}
	svc := newTestWindowService(&mockSettlementRepository{}, &windowTxnRepo{}, vehicles)

	window, err := svc.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{AsOf: day(12, 0)})
	require.NoError(t, err)
	require.NoError(t, svc.AttachActivity(context.Background(), window))

	require.Len(t, window.Visits, 1)
	assert.Equal(t, "today", window.Visits[0].ID)
	assert.Empty(t, window.Returns)

	stats := Aggregate(window, nil)
	assert.Equal(t, 0.0, stats.TotalReturns)
	assert.Equal(t, 1, stats.TotalVisits)
	assert.Equal(t, 0.0, stats.ExpectedCash)

	// Merge mode spans the dates instead.
	merged, err := svc.ComputeWindow(context.Background(), "v1", day(0, 0), WindowOptions{
		AsOf: day(12, 0), IgnoreCutoffDate: true,
	})
	require.NoError(t, err)
	require.NoError(t, svc.AttachActivity(context.Background(), merged))
	assert.Len(t, merged.Visits, 2)
	assert.Len(t, merged.Returns, 1)
}

func TestAggregate_ExpectedCash(t *testing.T) {
	window := &Window{
		Transactions: []models.Transaction{
			{Type: models.TxnInvoiceSale, Total: 1000, PaymentMethod: models.PaymentMethodCash},
			{Type: models.TxnInvoiceSale, Total: 400, PaymentMethod: models.PaymentMethodCredit},
			{Type: models.TxnInvoiceSale, Total: 300, PaymentMethod: models.PaymentMethodBank},
			{Type: models.TxnReceipt, Total: 150}, // standalone debt collection, cash
			{Type: models.TxnReturnSale, Total: 80},
		},
		Returns: []models.VehicleReturn{{TotalValue: 20}},
	}
	expenses := []models.SettlementExpense{
		{Category: models.ExpenseCategoryFuel, Amount: 40},
		{Category: models.ExpenseCategoryFood, Amount: 10},
	}

	stats := Aggregate(window, expenses)

	assert.Equal(t, 1700.0, stats.TotalSales)
	assert.Equal(t, 1300.0, stats.TotalCashSales) // cash + bank are immediate settlement
	assert.Equal(t, 400.0, stats.TotalCreditSales)
	assert.Equal(t, 300.0, stats.TotalBankTransfers)
	assert.Equal(t, 1150.0, stats.CashCollected)
	assert.Equal(t, 1450.0, stats.TotalCollections)
	assert.Equal(t, 100.0, stats.TotalReturns)
	assert.Equal(t, 2, stats.ReturnCount)
	assert.Equal(t, 50.0, stats.TotalExpenses)
	// collections - returns - bank - expenses
	assert.Equal(t, 1000.0, stats.ExpectedCash)
}

func TestAggregate_ReferencedReceiptNotDoubleCounted(t *testing.T) {
	invoiceID := "inv-1"
	window := &Window{
		Transactions: []models.Transaction{
			{ID: invoiceID, Type: models.TxnInvoiceSale, Total: 500, PaymentMethod: models.PaymentMethodCash},
			{Type: models.TxnReceipt, Total: 500, ReferenceTransactionID: &invoiceID},
		},
	}

	stats := Aggregate(window, nil)
	assert.Equal(t, 500.0, stats.CashCollected)
	assert.Equal(t, 500.0, stats.TotalCollections)
}

// Only sale invoices carry line discounts into the roll-up; discount fields
// on returns or referenced receipts never count.
func TestAggregate_DiscountsOnlyFromSaleInvoices(t *testing.T) {
	invoiceID := "inv-1"
	window := &Window{
		Transactions: []models.Transaction{
			{ID: invoiceID, Type: models.TxnInvoiceSale, Total: 500, Discount: 25, GlobalDiscount: 5, PaymentMethod: models.PaymentMethodCash},
			{Type: models.TxnReturnSale, Total: 100, Discount: 10},
			{Type: models.TxnReceipt, Total: 500, Discount: 7, ReferenceTransactionID: &invoiceID},
			{Type: models.TxnDiscountAllowed, Total: 15},
		},
	}

	stats := Aggregate(window, nil)
	assert.Equal(t, 45.0, stats.TotalDiscounts) // 25 + 5 + 15
}
