package models

import (
	"time"
)

// Partner represents a trading partner. A partner can be a customer, a
// supplier, or both; the role flags are not mutually exclusive and a
// both-role partner combines its two sub-ledgers into one balance.
type Partner struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	Name           string    `gorm:"size:255;not null;index" json:"name"`
	IsCustomer     bool      `gorm:"not null;default:true" json:"is_customer"`
	IsSupplier     bool      `gorm:"not null;default:false" json:"is_supplier"`
	Phone          string    `gorm:"size:32" json:"phone"`
	TaxID          string    `gorm:"size:64" json:"tax_id"`
	OpeningBalance float64   `gorm:"type:decimal(15,2);default:0" json:"opening_balance"`
	Balance        float64   `gorm:"type:decimal(15,2);default:0" json:"balance"` // derived cache
	CreditLimit    float64   `gorm:"type:decimal(15,2);default:0" json:"credit_limit"`
	SalesmanID     *string   `gorm:"size:64;index" json:"salesman_id"`
	Status         string    `gorm:"size:16;default:ACTIVE" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName specifies the table name for Partner
func (Partner) TableName() string {
	return "partners"
}
