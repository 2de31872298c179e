package services

import (
	"github.com/vanledger/vanledger-api/internal/jobs"
	"github.com/vanledger/vanledger-api/internal/locks"
	"github.com/vanledger/vanledger-api/internal/repository"
	"gorm.io/gorm"
)

// Services holds all service instances
type Services struct {
	Ledger      *LedgerService
	Window      *WindowService
	Settlement  *SettlementService
	Merge       *MergeService
	Transaction *TransactionService
	Export      *ExportService
	Report      *ReportService
	Audit       *AuditService
	Job         *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, locker locks.Locker, db *gorm.DB) *Services {
	auditSvc := NewAuditService(repos.Audit)
	windowSvc := NewWindowService(repos.Settlement, repos.Transaction, repos.Vehicle)

	return &Services{
		Ledger:      NewLedgerService(repos.Account, repos.Partner, repos.Transaction, repos.Journal),
		Window:      windowSvc,
		Settlement:  NewSettlementService(db, windowSvc, auditSvc, locker),
		Merge:       NewMergeService(db, auditSvc, locker),
		Transaction: NewTransactionService(db, repos.Transaction, auditSvc),
		Export:      NewExportService(repos.Account, repos.Settlement),
		Report:      NewReportService(repos.Settlement, repos.Vehicle),
		Audit:       auditSvc,
		Job:         NewJobService(worker),
	}
}
