package models

import (
	"time"
)

// Settlement is one reconciliation period for a vehicle's field-sales
// activity. While DRAFT or SUBMITTED its aggregate fields are a cache that is
// recomputed on every read; once APPROVED they become the frozen record of
// truth for the period and are served verbatim regardless of later changes to
// the underlying transactions.
type Settlement struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	VehicleID      string    `gorm:"size:64;not null;index" json:"vehicle_id"`
	SettlementDate time.Time `gorm:"type:date;not null;index" json:"settlement_date"`
	SalesmanID     *string   `gorm:"size:64;index" json:"salesman_id"`
	SalesmanName   string    `gorm:"size:255" json:"salesman_name"`
	Status         string    `gorm:"size:16;not null;index;default:DRAFT" json:"status"`

	TotalSales         float64 `gorm:"type:decimal(15,2);default:0" json:"total_sales"`
	TotalCashSales     float64 `gorm:"type:decimal(15,2);default:0" json:"total_cash_sales"`
	TotalCreditSales   float64 `gorm:"type:decimal(15,2);default:0" json:"total_credit_sales"`
	TotalDiscounts     float64 `gorm:"type:decimal(15,2);default:0" json:"total_discounts"`
	TotalBankTransfers float64 `gorm:"type:decimal(15,2);default:0" json:"total_bank_transfers"`
	CashCollected      float64 `gorm:"type:decimal(15,2);default:0" json:"cash_collected"`
	TotalCollections   float64 `gorm:"type:decimal(15,2);default:0" json:"total_collections"`
	TotalReturns       float64 `gorm:"type:decimal(15,2);default:0" json:"total_returns"`
	ReturnCount        int     `gorm:"default:0" json:"return_count"`
	TotalExpenses      float64 `gorm:"type:decimal(15,2);default:0" json:"total_expenses"`
	ExpectedCash       float64 `gorm:"type:decimal(15,2);default:0" json:"expected_cash"`
	ActualCash         float64 `gorm:"type:decimal(15,2);default:0" json:"actual_cash"`
	CashDifference     float64 `gorm:"type:decimal(15,2);default:0" json:"cash_difference"`
	TotalVisits        int     `gorm:"default:0" json:"total_visits"`
	SuccessfulVisits   int     `gorm:"default:0" json:"successful_visits"`

	Notes         string     `gorm:"type:text" json:"notes"`
	DisputeReason *string    `gorm:"type:text" json:"dispute_reason,omitempty"`
	CreatedBy     string     `gorm:"size:255" json:"created_by"`
	ApprovedBy    *string    `gorm:"size:255" json:"approved_by,omitempty"`
	ApprovedAt    *time.Time `gorm:"index" json:"approved_at,omitempty"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	Expenses []SettlementExpense `gorm:"foreignKey:SettlementID" json:"expenses,omitempty"`
}

// TableName specifies the table name for Settlement
func (Settlement) TableName() string {
	return "vehicle_settlements"
}

// Settlement status constants
const (
	SettlementStatusDraft     = "DRAFT"
	SettlementStatusSubmitted = "SUBMITTED"
	SettlementStatusApproved  = "APPROVED"
	SettlementStatusDisputed  = "DISPUTED"
)

// CutoffTime returns the timestamp this settlement contributes as a window
// boundary for later periods: the approval time when approved, otherwise the
// creation time.
func (s *Settlement) CutoffTime() time.Time {
	if s.ApprovedAt != nil {
		return *s.ApprovedAt
	}
	return s.CreatedAt
}

// IsFrozen reports whether the stored aggregates are the authoritative
// historical record rather than a recomputable cache.
func (s *Settlement) IsFrozen() bool {
	return s.Status == SettlementStatusApproved
}

// BoundsWindow reports whether this settlement acts as a cutoff for a later
// period. SUBMITTED periods count as provisional cutoffs so that a
// concurrently opened next period cannot claim the same transactions.
func (s *Settlement) BoundsWindow() bool {
	return s.Status == SettlementStatusApproved || s.Status == SettlementStatusSubmitted
}

// MaySubmit returns true if the settlement can transition to SUBMITTED
func (s *Settlement) MaySubmit() bool {
	return s.Status == SettlementStatusDraft
}

// MayApprove returns true if the settlement can be approved
func (s *Settlement) MayApprove() bool {
	return s.Status == SettlementStatusDraft || s.Status == SettlementStatusSubmitted
}

// MayDispute returns true if the settlement can be disputed
func (s *Settlement) MayDispute() bool {
	return s.Status == SettlementStatusSubmitted
}

// MayReopen returns true if a disputed settlement can go back to DRAFT
func (s *Settlement) MayReopen() bool {
	return s.Status == SettlementStatusDisputed
}

// MayDelete returns true if the settlement can be abandoned without side
// effects. Only DRAFT periods qualify; anything else is removed exclusively
// by the duplicate-merge procedure.
func (s *Settlement) MayDelete() bool {
	return s.Status == SettlementStatusDraft
}

// SettlementExpense is a cash expense declared during reconciliation (fuel,
// food, parking...). Expenses reduce the expected cash to hand over.
type SettlementExpense struct {
	ID           string  `gorm:"primaryKey;size:64" json:"id"`
	SettlementID string  `gorm:"size:64;not null;index" json:"settlement_id"`
	Category     string  `gorm:"size:32;default:OTHER" json:"category"`
	Description  string  `gorm:"size:512" json:"description"`
	Amount       float64 `gorm:"type:decimal(15,2);not null" json:"amount"`
}

// TableName specifies the table name for SettlementExpense
func (SettlementExpense) TableName() string {
	return "settlement_expenses"
}

// Expense category constants
const (
	ExpenseCategoryFuel        = "FUEL"
	ExpenseCategoryFood        = "FOOD"
	ExpenseCategoryDelivery    = "DELIVERY"
	ExpenseCategoryParking     = "PARKING"
	ExpenseCategoryMaintenance = "MAINTENANCE"
	ExpenseCategoryOther       = "OTHER"
)
