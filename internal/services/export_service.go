package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/vanledger/vanledger-api/internal/repository"
)

type ExportService struct {
	accountRepo    repository.AccountRepository
	settlementRepo repository.SettlementRepository
}

func NewExportService(accountRepo repository.AccountRepository, settlementRepo repository.SettlementRepository) *ExportService {
	return &ExportService{accountRepo: accountRepo, settlementRepo: settlementRepo}
}

// TrialBalanceXLSX exports the chart of accounts with balances split into
// debit and credit columns.
func (s *ExportService) TrialBalanceXLSX(ctx context.Context) ([]byte, string, error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Trial Balance"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	_ = f.SetCellValue(sheet, "A1", "Trial Balance")
	_ = f.SetCellValue(sheet, "B1", time.Now().Format("2006-01-02 15:04"))
	_ = f.SetCellStyle(sheet, "A1", "B1", headerStyle)

	_ = f.SetCellValue(sheet, "A3", "Code")
	_ = f.SetCellValue(sheet, "B3", "Account")
	_ = f.SetCellValue(sheet, "C3", "Type")
	_ = f.SetCellValue(sheet, "D3", "Debit")
	_ = f.SetCellValue(sheet, "E3", "Credit")
	_ = f.SetCellStyle(sheet, "A3", "E3", headerStyle)

	var totalDebit, totalCredit float64
	row := 4
	for _, account := range accounts {
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), account.Code)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), account.Name)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), account.Type)
		if account.DebitNormal() {
			_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), account.Balance)
			totalDebit += account.Balance
		} else {
			_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), account.Balance)
			totalCredit += account.Balance
		}
		row++
	}

	_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row+1), "Total")
	_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row+1), totalDebit)
	_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row+1), totalCredit)
	_ = f.SetCellStyle(sheet, fmt.Sprintf("B%d", row+1), fmt.Sprintf("E%d", row+1), headerStyle)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("trial_balance_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

// SettlementsXLSX exports settlements in a date range, one row each.
func (s *ExportService) SettlementsXLSX(ctx context.Context, status string, from, to *time.Time) ([]byte, string, error) {
	settlements, err := s.settlementRepo.List(ctx, status, from, to)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Settlements"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Date", "Vehicle", "Salesman", "Status", "Total Sales",
		"Cash Sales", "Credit Sales", "Discounts", "Bank Transfers", "Cash Collected",
		"Returns", "Expenses", "Expected Cash", "Actual Cash", "Difference", "Approved By"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", lastCol, headerStyle)

	for i, st := range settlements {
		row := i + 2
		approvedBy := ""
		if st.ApprovedBy != nil {
			approvedBy = *st.ApprovedBy
		}
		values := []interface{}{
			st.SettlementDate.Format("2006-01-02"), st.VehicleID, st.SalesmanName,
			st.Status, st.TotalSales, st.TotalCashSales, st.TotalCreditSales,
			st.TotalDiscounts, st.TotalBankTransfers, st.CashCollected,
			st.TotalReturns, st.TotalExpenses, st.ExpectedCash, st.ActualCash,
			st.CashDifference, approvedBy,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("settlements_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
