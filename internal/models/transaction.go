package models

import (
	"time"
)

// Transaction represents a posted financial event: sale and purchase
// invoices, returns, receipts, payments, discounts and cheque movements.
// Once POSTED a transaction is immutable; corrections are made by posting an
// explicit reversing transaction linked through ReferenceTransactionID.
type Transaction struct {
	ID             string  `gorm:"primaryKey;size:64" json:"id"` // client-suppliable for offline sync
	Number         string  `gorm:"size:64;index" json:"number"`
	Type           string  `gorm:"size:32;not null;index" json:"type"`
	Status         string  `gorm:"size:16;not null;index;default:POSTED" json:"status"`
	Total          float64 `gorm:"type:decimal(15,2);not null" json:"total"`
	Discount       float64 `gorm:"type:decimal(15,2);default:0" json:"discount"`
	GlobalDiscount float64 `gorm:"type:decimal(15,2);default:0" json:"global_discount"`
	WhtAmount      float64 `gorm:"type:decimal(15,2);default:0" json:"wht_amount"`
	PaymentMethod  string  `gorm:"size:16" json:"payment_method"`

	// BusinessDate is the logical date of the event, set by the originating
	// client and potentially backdated. SyncedAt is the server-assigned
	// arrival time and is the only field used for window boundaries.
	BusinessDate time.Time `gorm:"not null;index" json:"business_date"`
	SyncedAt     time.Time `gorm:"not null;index" json:"synced_at"`

	PartnerID  *string `gorm:"size:64;index" json:"partner_id"`
	VehicleID  *string `gorm:"size:64;index" json:"vehicle_id"`
	SalesmanID *string `gorm:"size:64;index" json:"salesman_id"`

	// ReferenceTransactionID links a generated counter-transaction (e.g. the
	// receipt auto-created for a van sale, or a reversal) to its origin.
	ReferenceTransactionID *string `gorm:"size:64;index" json:"reference_transaction_id"`

	Notes           string    `gorm:"type:text" json:"notes"`
	CreatedByUserID uint      `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// Transaction status constants
const (
	TransactionStatusDraft  = "DRAFT"
	TransactionStatusPosted = "POSTED"
	TransactionStatusVoid   = "VOID"
)

// Transaction type constants
const (
	TxnInvoiceSale     = "INVOICE_SALE"
	TxnInvoicePurchase = "INVOICE_PURCHASE"
	TxnReturnSale      = "RETURN_SALE"
	TxnReturnPurchase  = "RETURN_PURCHASE"
	TxnReceipt         = "RECEIPT"
	TxnPayment         = "PAYMENT"
	TxnDiscountAllowed = "DISCOUNT_ALLOWED"
	TxnDiscountEarned  = "DISCOUNT_EARNED"
	TxnChequeDeposit   = "CHEQUE_DEPOSIT"
	TxnChequeCollect   = "CHEQUE_COLLECT"
	TxnChequeCashed    = "CHEQUE_CASHED"
	TxnChequeBounce    = "CHEQUE_BOUNCE"
)

// Payment method constants
const (
	PaymentMethodCash   = "CASH"
	PaymentMethodBank   = "BANK"
	PaymentMethodCredit = "CREDIT"
)

// NetTotal returns the total net of withholding tax.
func (t *Transaction) NetTotal() float64 {
	return t.Total - t.WhtAmount
}

// IsStandaloneReceipt reports whether the transaction is a receipt that was
// not auto-generated for a sale invoice (i.e. a direct debt collection).
// Auto-generated receipts carry a ReferenceTransactionID and must not be
// counted again on top of their originating invoice.
func (t *Transaction) IsStandaloneReceipt() bool {
	return t.Type == TxnReceipt && t.ReferenceTransactionID == nil
}
