package models

import (
	"time"
)

// JournalEntry is a double-entry accounting record. Its lines must balance:
// the sum of debits equals the sum of credits.
type JournalEntry struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Date        time.Time `gorm:"not null;index" json:"date"`
	Description string    `gorm:"size:512" json:"description"`
	ReferenceID *string   `gorm:"size:64;index" json:"reference_id"` // settlement or transaction that produced the entry
	CreatedAt   time.Time `json:"created_at"`

	Lines []JournalLine `gorm:"foreignKey:JournalID" json:"lines,omitempty"`
}

// TableName specifies the table name for JournalEntry
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// JournalLine is a single debit or credit against an account.
type JournalLine struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	JournalID string  `gorm:"size:64;not null;index" json:"journal_id"`
	AccountID string  `gorm:"size:64;not null;index" json:"account_id"`
	Debit     float64 `gorm:"type:decimal(15,2);default:0" json:"debit"`
	Credit    float64 `gorm:"type:decimal(15,2);default:0" json:"credit"`
}

// TableName specifies the table name for JournalLine
func (JournalLine) TableName() string {
	return "journal_lines"
}
