package service

import (
	"context"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
)

type auditReader interface {
	ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AuditService exposes the audit trail to administrators.
type AuditService struct {
	repo auditReader
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditReader) *AuditService {
	return &AuditService{repo: repo}
}

// Recent returns the newest audit entries.
func (s *AuditService) Recent(ctx context.Context, actor models.Actor, limit int) ([]models.AuditLog, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	logs, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list audit logs")
	}
	return logs, nil
}
