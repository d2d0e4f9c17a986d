package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-admin-core/internal/models"
	appErrors "github.com/noah-isme/sma-admin-core/pkg/errors"
	"github.com/noah-isme/sma-admin-core/pkg/logger"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// WriteHooks are the side effects every successful write triggers. All
// fields are optional.
type WriteHooks struct {
	Audit   AuditRecorder
	Cache   *CacheService
	Metrics *MetricsService
	Logger  *zap.Logger
}

func (h WriteHooks) log(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx, h.Logger)
}

// written records the audit entry and drops the dashboard cache.
func (h WriteHooks) written(ctx context.Context, actor models.Actor, action, resource string, resourceID int64, values interface{}) {
	h.Cache.InvalidateDashboard(ctx)
	if h.Audit == nil {
		return
	}
	entry := &models.AuditLog{Action: action, Resource: resource}
	if actor.UserID != 0 {
		actorID := actor.UserID
		entry.ActorID = &actorID
	}
	if resourceID != 0 {
		entry.ResourceID = &resourceID
	}
	if values != nil {
		if raw, err := json.Marshal(values); err == nil {
			entry.NewValues = raw
		}
	}
	if err := h.Audit.CreateAuditLog(ctx, entry); err != nil {
		h.log(ctx).Warn("failed to record audit log",
			zap.String("action", action), zap.String("resource", resource), zap.Error(err))
	}
}

// deleteFailed counts dependency refusals before the error is mapped.
func (h WriteHooks) deleteFailed(ctx context.Context, resource string, err error) {
	if errors.Is(err, appErrors.ErrDependency) {
		h.Metrics.RecordBlockedDelete(resource)
		h.log(ctx).Info("delete blocked by dependency", zap.String("resource", resource), zap.Error(err))
	}
}

func requireAdmin(actor models.Actor) error {
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "admin role required")
	}
	return nil
}

// mapRepoError turns sql.ErrNoRows into NOT_FOUND, passes typed errors
// through and hides anything else behind INTERNAL_ERROR.
func mapRepoError(err error, notFound, failure string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Internal(err, failure)
}
