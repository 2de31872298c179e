package services

import (
	"context"
	"time"

	"github.com/vanledger/vanledger-api/internal/models"
	"github.com/vanledger/vanledger-api/internal/repository"
	"github.com/vanledger/vanledger-api/pkg/logger"
)

type AuditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// Log records an audit entry. Audit writes are best-effort: a failure is
// logged but never fails the operation being audited.
func (s *AuditService) Log(ctx context.Context, userEmail, action, entity, entityID, details, ip, userAgent string) {
	entry := &models.AuditLog{
		UserEmail: userEmail,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Details:   details,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		logger.Error("Failed to write audit log", "action", action, "entity", entity, "entity_id", entityID, "error", err)
	}
}

// List retrieves audit logs within an optional time range
func (s *AuditService) List(ctx context.Context, from, to *time.Time, limit int) ([]models.AuditLog, error) {
	return s.auditRepo.List(ctx, from, to, limit)
}

// History retrieves the audit trail of a single entity
func (s *AuditService) History(ctx context.Context, entity, entityID string) ([]models.AuditLog, error) {
	return s.auditRepo.FindByEntity(ctx, entity, entityID)
}
