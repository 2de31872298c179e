package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/vanledger/vanledger-api/internal/repository"
)

type ReportService struct {
	settlementRepo repository.SettlementRepository
	vehicleRepo    repository.VehicleRepository
}

func NewReportService(settlementRepo repository.SettlementRepository, vehicleRepo repository.VehicleRepository) *ReportService {
	return &ReportService{settlementRepo: settlementRepo, vehicleRepo: vehicleRepo}
}

// SettlementPDF renders a printable reconciliation sheet for one settlement.
func (s *ReportService) SettlementPDF(ctx context.Context, settlementID string) ([]byte, string, error) {
	settlement, err := s.settlementRepo.FindByID(ctx, settlementID)
	if err != nil {
		return nil, "", ErrNotFound
	}
	plate := settlement.VehicleID
	if vehicle, err := s.vehicleRepo.FindByID(ctx, settlement.VehicleID); err == nil {
		plate = vehicle.PlateNumber
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Vehicle Settlement Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(50, 8, "Vehicle:")
	pdf.Cell(80, 8, plate)
	pdf.Ln(6)
	pdf.Cell(50, 8, "Date:")
	pdf.Cell(80, 8, settlement.SettlementDate.Format("2006-01-02"))
	pdf.Ln(6)
	pdf.Cell(50, 8, "Salesman:")
	pdf.Cell(80, 8, settlement.SalesmanName)
	pdf.Ln(6)
	pdf.Cell(50, 8, "Status:")
	pdf.Cell(80, 8, settlement.Status)
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Sales")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	writeAmountRow(pdf, "Total sales", settlement.TotalSales)
	writeAmountRow(pdf, "Cash sales", settlement.TotalCashSales)
	writeAmountRow(pdf, "Credit sales", settlement.TotalCreditSales)
	writeAmountRow(pdf, "Discounts", settlement.TotalDiscounts)
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(40, 10, "Cash Reconciliation")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	writeAmountRow(pdf, "Collections", settlement.TotalCollections)
	writeAmountRow(pdf, "Bank transfers", settlement.TotalBankTransfers)
	writeAmountRow(pdf, "Returns", settlement.TotalReturns)
	writeAmountRow(pdf, "Expenses", settlement.TotalExpenses)
	writeAmountRow(pdf, "Expected cash", settlement.ExpectedCash)
	writeAmountRow(pdf, "Actual cash", settlement.ActualCash)
	writeAmountRow(pdf, "Difference", settlement.CashDifference)
	pdf.Ln(4)

	if len(settlement.Expenses) > 0 {
		pdf.SetFont("Arial", "B", 12)
		pdf.Cell(40, 10, "Declared Expenses")
		pdf.Ln(8)
		pdf.SetFont("Arial", "", 11)
		for _, expense := range settlement.Expenses {
			pdf.Cell(50, 7, expense.Category)
			pdf.Cell(80, 7, expense.Description)
			pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", expense.Amount), "", 0, "R", false, 0, "")
			pdf.Ln(7)
		}
	}

	if settlement.ApprovedBy != nil && settlement.ApprovedAt != nil {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(120, 7, fmt.Sprintf("Approved by %s at %s",
			*settlement.ApprovedBy, settlement.ApprovedAt.Format("2006-01-02 15:04")))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("settlement_%s_%s.pdf", plate, settlement.SettlementDate.Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}

func writeAmountRow(pdf *gofpdf.Fpdf, label string, amount float64) {
	pdf.Cell(70, 7, label)
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", amount), "", 0, "R", false, 0, "")
	pdf.Ln(7)
}
