package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Audit actions recorded for successful writes.
const (
	AuditActionLogin         = "LOGIN"
	AuditActionCreate        = "CREATE"
	AuditActionUpdate        = "UPDATE"
	AuditActionDelete        = "DELETE"
	AuditActionResetPassword = "RESET_PASSWORD"
	AuditActionSettingUpdate = "SETTING_UPDATE"
)

// Audited resources.
const (
	AuditResourceUser         = "user"
	AuditResourceSubject      = "subject"
	AuditResourceClass        = "class"
	AuditResourceClassSubject = "class_subject"
	AuditResourceSetting      = "setting"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID         int64          `db:"id" json:"id"`
	ActorID    *int64         `db:"actor_id" json:"actor_id,omitempty"`
	Action     string         `db:"action" json:"action"`
	Resource   string         `db:"resource" json:"resource"`
	ResourceID *int64         `db:"resource_id" json:"resource_id,omitempty"`
	NewValues  types.JSONText `db:"new_values" json:"new_values,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
