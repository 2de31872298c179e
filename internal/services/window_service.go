package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/repository"
	"github.com/vanledger/vanledger-api/pkg/logger"
)

// WindowOptions tunes how a settlement window is computed.
type WindowOptions struct {
	// ExcludeID removes the settlement being recomputed from the cutoff
	// search so it cannot bound its own window.
	ExcludeID string
	// AsOf is the right edge of the window. Zero means now.
	AsOf time.Time
	// IgnoreCutoffDate switches to merge mode: span from the prior APPROVED
	// cutoff through AsOf with no business-date filter. Used when collapsing
	// duplicate periods into one.
	IgnoreCutoffDate bool
}

// Window is the set of records attributed to one settlement period. The left
// edge is exclusive, the right edge inclusive, both compared on arrival time
// (synced_at / created_at), never on the client-reported business date.
type Window struct {
	VehicleID string
	Date      time.Time
	Cutoff    *time.Time
	AsOf      time.Time

	// IgnoreDate carries the merge-mode flag through to activity selection:
	// when set, visits and returns are taken over the whole span instead of
	// the settlement's business date.
	IgnoreDate bool

	Transactions []models.Transaction
	Visits       []models.CustomerVisit
	Returns      []models.VehicleReturn

	// SalesmanMismatches holds transactions that fell inside the window but
	// carry a different salesman than the vehicle's current assignment. They
	// are excluded from aggregates and surfaced for review.
	SalesmanMismatches []models.Transaction
}

// SettlementStats is the aggregate roll-up of a window.
type SettlementStats struct {
	TotalSales         float64 `json:"total_sales"`
	TotalCashSales     float64 `json:"total_cash_sales"`
	TotalCreditSales   float64 `json:"total_credit_sales"`
	TotalDiscounts     float64 `json:"total_discounts"`
	TotalBankTransfers float64 `json:"total_bank_transfers"`
	CashCollected      float64 `json:"cash_collected"`
	TotalCollections   float64 `json:"total_collections"`
	TotalReturns       float64 `json:"total_returns"`
	ReturnCount        int     `json:"return_count"`
	TotalExpenses      float64 `json:"total_expenses"`
	ExpectedCash       float64 `json:"expected_cash"`
	TotalVisits        int     `json:"total_visits"`
	SuccessfulVisits   int     `json:"successful_visits"`
}

// WindowService allocates transactions, visits and returns to settlement
// periods using server-assigned arrival timestamps.
type WindowService struct {
	settlementRepo repository.SettlementRepository
	txnRepo        repository.TransactionRepository
	vehicleRepo    repository.VehicleRepository
}

// NewWindowService creates a new window service
func NewWindowService(
	settlementRepo repository.SettlementRepository,
	txnRepo repository.TransactionRepository,
	vehicleRepo repository.VehicleRepository,
) *WindowService {
	return &WindowService{
		settlementRepo: settlementRepo,
		txnRepo:        txnRepo,
		vehicleRepo:    vehicleRepo,
	}
}

// ComputeWindow resolves the cutoff for a vehicle and fetches everything that
// arrived after it, up to opts.AsOf. In normal mode rows are additionally
// filtered to the settlement's business date; merge mode takes the whole
// span.
func (s *WindowService) ComputeWindow(ctx context.Context, vehicleID string, date time.Time, opts WindowOptions) (*Window, error) {
	asOf := opts.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	var prior *models.Settlement
	var err error
	if opts.IgnoreCutoffDate {
		// Merge mode ranks only APPROVED periods: the SUBMITTED duplicates
		// about to be deleted must not bound their own replacement.
		prior, err = s.settlementRepo.FindLatestApproved(ctx, vehicleID, asOf)
	} else {
		prior, err = s.settlementRepo.FindLatestBounding(ctx, vehicleID, opts.ExcludeID, asOf)
	}
	if err != nil {
		return nil, err
	}

	var cutoff *time.Time
	if prior != nil {
		t := prior.CutoffTime()
		cutoff = &t
	}

	window := &Window{
		VehicleID:  vehicleID,
		Date:       date,
		Cutoff:     cutoff,
		AsOf:       asOf,
		IgnoreDate: opts.IgnoreCutoffDate,
	}

	vehicle, err := s.vehicleRepo.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, ErrNotFound
	}

	txns, err := s.txnRepo.FindPostedForVehicle(ctx, vehicleID, cutoff, &asOf)
	if err != nil {
		return nil, err
	}
	window.Transactions, window.SalesmanMismatches = allocateTransactions(txns, vehicle.SalesmanID, date, opts.IgnoreCutoffDate)
	for _, m := range window.SalesmanMismatches {
		logger.Warn("Transaction salesman differs from vehicle assignment",
			"transaction_id", m.ID,
			"vehicle_id", vehicleID)
	}

	return window, nil
}

// AttachActivity fills in the visit and return records for a window. The
// business-date filter applied to transactions holds here too: a first-ever
// settlement (open left edge) must not sweep in the vehicle's whole history.
func (s *WindowService) AttachActivity(ctx context.Context, window *Window) error {
	visits, err := s.vehicleRepo.FindVisits(ctx, window.VehicleID, window.Cutoff, &window.AsOf)
	if err != nil {
		return err
	}
	returns, err := s.vehicleRepo.FindReturns(ctx, window.VehicleID, window.Cutoff, &window.AsOf)
	if err != nil {
		return err
	}
	if !window.IgnoreDate {
		visits = filterVisitsByDate(visits, window.Date)
		returns = filterReturnsByDate(returns, window.Date)
	}
	window.Visits = visits
	window.Returns = returns
	return nil
}

func filterVisitsByDate(visits []models.CustomerVisit, date time.Time) []models.CustomerVisit {
	var out []models.CustomerVisit
	for _, v := range visits {
		if sameDay(v.VisitDate, date) {
			out = append(out, v)
		}
	}
	return out
}

func filterReturnsByDate(returns []models.VehicleReturn, date time.Time) []models.VehicleReturn {
	var out []models.VehicleReturn
	for _, r := range returns {
		if sameDay(r.ReturnDate, date) {
			out = append(out, r)
		}
	}
	return out
}

// allocateTransactions splits candidate rows into window members and salesman
// mismatches. Rows outside the business date are dropped entirely unless the
// caller asked for the full span.
func allocateTransactions(txns []models.Transaction, vehicleSalesman *string, date time.Time, ignoreDate bool) (members, mismatches []models.Transaction) {
	for _, txn := range txns {
		if !ignoreDate && !sameDay(txn.BusinessDate, date) {
			continue
		}
		if vehicleSalesman != nil && txn.SalesmanID != nil && *txn.SalesmanID != *vehicleSalesman {
			mismatches = append(mismatches, txn)
			continue
		}
		members = append(members, txn)
	}
	return members, mismatches
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Aggregate rolls a window up into settlement statistics. expectedCash is
// what the driver must physically hand over: everything collected, minus
// returned goods value, minus the part that went through the bank, minus
// declared expenses.
func Aggregate(window *Window, expenses []models.SettlementExpense) SettlementStats {
	var (
		sales       decimal.Decimal
		cashSales   decimal.Decimal
		creditSales decimal.Decimal
		discounts   decimal.Decimal
		bank        decimal.Decimal
		cash        decimal.Decimal
		returns     decimal.Decimal
		returnCount int
	)

	for i := range window.Transactions {
		txn := &window.Transactions[i]
		total := decimal.NewFromFloat(txn.Total)

		switch txn.Type {
		case models.TxnInvoiceSale:
			sales = sales.Add(total)
			discounts = discounts.Add(decimal.NewFromFloat(txn.Discount)).
				Add(decimal.NewFromFloat(txn.GlobalDiscount))
			switch txn.PaymentMethod {
			case models.PaymentMethodCash:
				cashSales = cashSales.Add(total)
				cash = cash.Add(total)
			case models.PaymentMethodBank:
				cashSales = cashSales.Add(total)
				bank = bank.Add(total)
			default:
				creditSales = creditSales.Add(total)
			}
		case models.TxnReceipt:
			// Auto-generated receipts reference their invoice and were
			// already counted there.
			if !txn.IsStandaloneReceipt() {
				continue
			}
			if txn.PaymentMethod == models.PaymentMethodBank {
				bank = bank.Add(total)
			} else {
				cash = cash.Add(total)
			}
		case models.TxnReturnSale:
			returns = returns.Add(total)
			returnCount++
		case models.TxnDiscountAllowed:
			discounts = discounts.Add(total)
		}
	}

	for i := range window.Returns {
		returns = returns.Add(decimal.NewFromFloat(window.Returns[i].TotalValue))
		returnCount++
	}

	var expenseTotal decimal.Decimal
	for i := range expenses {
		expenseTotal = expenseTotal.Add(decimal.NewFromFloat(expenses[i].Amount))
	}

	collections := cash.Add(bank)
	expected := collections.Sub(returns).Sub(bank).Sub(expenseTotal)

	stats := SettlementStats{
		ReturnCount: returnCount,
		TotalVisits: len(window.Visits),
	}
	for _, visit := range window.Visits {
		if visit.Result == models.VisitResultSale {
			stats.SuccessfulVisits++
		}
	}
	stats.TotalSales = round2(sales)
	stats.TotalCashSales = round2(cashSales)
	stats.TotalCreditSales = round2(creditSales)
	stats.TotalDiscounts = round2(discounts)
	stats.TotalBankTransfers = round2(bank)
	stats.CashCollected = round2(cash)
	stats.TotalCollections = round2(collections)
	stats.TotalReturns = round2(returns)
	stats.TotalExpenses = round2(expenseTotal)
	stats.ExpectedCash = round2(expected)
	return stats
}

func round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
