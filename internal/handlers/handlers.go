package handlers

import (
	"github.com/vanledger/vanledger-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health      *HealthHandler
	Account     *AccountHandler
	Partner     *PartnerHandler
	Transaction *TransactionHandler
	Settlement  *SettlementHandler
	Report      *ReportHandler
	Audit       *AuditHandler
	Job         *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(),
		Account:     NewAccountHandler(svcs.Ledger),
		Partner:     NewPartnerHandler(svcs.Ledger),
		Transaction: NewTransactionHandler(svcs.Transaction),
		Settlement:  NewSettlementHandler(svcs.Settlement, svcs.Merge, svcs.Report),
		Report:      NewReportHandler(svcs.Export),
		Audit:       NewAuditHandler(svcs.Audit),
		Job:         NewJobHandler(svcs.Job),
	}
}
