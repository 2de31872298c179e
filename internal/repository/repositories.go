package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Account     AccountRepository
	Partner     PartnerRepository
	Transaction TransactionRepository
	Journal     JournalRepository
	Settlement  SettlementRepository
	Vehicle     VehicleRepository
	Audit       AuditRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Account:     NewAccountRepository(db),
		Partner:     NewPartnerRepository(db),
		Transaction: NewTransactionRepository(db),
		Journal:     NewJournalRepository(db),
		Settlement:  NewSettlementRepository(db),
		Vehicle:     NewVehicleRepository(db),
		Audit:       NewAuditRepository(db),
	}
}
