package models

import (
	"time"
)

// Vehicle is a mobile sales unit assigned to a salesman.
type Vehicle struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	PlateNumber string    `gorm:"size:32;uniqueIndex" json:"plate_number"`
	SalesmanID  *string   `gorm:"size:64;index" json:"salesman_id"`
	Status      string    `gorm:"size:16;default:ACTIVE" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Vehicle
func (Vehicle) TableName() string {
	return "vehicles"
}

// CustomerVisit records one stop of a vehicle at a customer. VisitDate is the
// client-reported time of the visit; CreatedAt is when the record reached the
// server and is the field used for settlement windowing.
type CustomerVisit struct {
	ID               string    `gorm:"primaryKey;size:64" json:"id"`
	VehicleID        string    `gorm:"size:64;not null;index" json:"vehicle_id"`
	PartnerID        *string   `gorm:"size:64;index" json:"partner_id"`
	SalesmanID       *string   `gorm:"size:64;index" json:"salesman_id"`
	VisitDate        time.Time `gorm:"not null;index" json:"visit_date"`
	Result           string    `gorm:"size:16" json:"result"`
	InvoiceAmount    float64   `gorm:"type:decimal(15,2);default:0" json:"invoice_amount"`
	PaymentCollected float64   `gorm:"type:decimal(15,2);default:0" json:"payment_collected"`
	DebtCollected    float64   `gorm:"type:decimal(15,2);default:0" json:"debt_collected"`
	PaymentMethod    string    `gorm:"size:16" json:"payment_method"`
	TransactionID    *string   `gorm:"size:64;index" json:"transaction_id"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for CustomerVisit
func (CustomerVisit) TableName() string {
	return "vehicle_customer_visits"
}

// Visit result constants
const (
	VisitResultSale   = "SALE"
	VisitResultReturn = "RETURN"
	VisitResultNoSale = "NO_SALE"
)

// VehicleReturn records goods returned from a vehicle to the warehouse.
type VehicleReturn struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	VehicleID  string    `gorm:"size:64;not null;index" json:"vehicle_id"`
	ReturnDate time.Time `gorm:"not null;index" json:"return_date"`
	TotalValue float64   `gorm:"type:decimal(15,2);default:0" json:"total_value"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for VehicleReturn
func (VehicleReturn) TableName() string {
	return "vehicle_returns"
}
