package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-admin-core/internal/models"
)

// AuditRepository stores audit trail entries.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog stores an audit log entry and fills in its id and timestamp.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	const query = `INSERT INTO audit_logs (actor_id, action, resource, resource_id, new_values) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	var newValues interface{}
	if len(log.NewValues) > 0 {
		newValues = log.NewValues
	}
	if err := r.db.QueryRowxContext(ctx, query, log.ActorID, log.Action, log.Resource, log.ResourceID, newValues).Scan(&log.ID, &log.CreatedAt); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListRecent returns the latest audit entries, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	const query = `SELECT id, actor_id, action, resource, resource_id, new_values, created_at FROM audit_logs ORDER BY id DESC LIMIT $1`
	logs := []models.AuditLog{}
	if err := r.db.SelectContext(ctx, &logs, query, limit); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
