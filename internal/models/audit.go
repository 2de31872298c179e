package models

import (
	"time"
)

// AuditLog represents a system audit entry
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserEmail string    `gorm:"size:255;index" json:"user_email"`
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE, APPROVE, DISPUTE, MERGE, DELETE
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Settlement, Transaction, Account, etc.
	EntityID  string    `gorm:"size:64;index" json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"` // JSON or text description
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
