package models

import (
	"time"
)

// Account represents a general ledger account
type Account struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	Code           string    `gorm:"size:32;uniqueIndex" json:"code"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Type           string    `gorm:"size:16;not null;index" json:"type"`
	OpeningBalance float64   `gorm:"type:decimal(15,2);default:0" json:"opening_balance"`
	Balance        float64   `gorm:"type:decimal(15,2);default:0" json:"balance"` // derived cache, recomputable from journal lines
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Account
func (Account) TableName() string {
	return "accounts"
}

// Account type constants
const (
	AccountTypeAsset     = "ASSET"
	AccountTypeLiability = "LIABILITY"
	AccountTypeEquity    = "EQUITY"
	AccountTypeRevenue   = "REVENUE"
	AccountTypeExpense   = "EXPENSE"
)

// DebitNormal returns true for account types whose balance increases with
// debit postings (ASSET, EXPENSE). All other types are credit-normal.
func (a *Account) DebitNormal() bool {
	return a.Type == AccountTypeAsset || a.Type == AccountTypeExpense
}
