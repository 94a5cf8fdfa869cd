package models

import (
	"time"

	"vaultadmin/internal/uuid"

	"gorm.io/gorm"
)

// Audit event statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
	StatusWarning = "WARNING"
	StatusBlocked = "BLOCKED"
)

// AuditLog is an append-only audit event. Rows are never updated after
// creation and are deleted only when an archival run folds them into an
// AuditLogArchive. It deliberately does not embed Base: there is no
// updated_at, and soft deletes would break archival's hard delete.
type AuditLog struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID    *string   `gorm:"type:uuid;index" json:"tenant_id,omitempty"`
	ActorUserID *string   `gorm:"type:uuid;index" json:"actor_user_id,omitempty"`
	Action      string    `gorm:"not null;index" json:"action"`
	Resource    string    `gorm:"not null;index" json:"resource"`
	ResourceID  *string   `json:"resource_id,omitempty"`
	IPAddress   string    `gorm:"index" json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	Status      string    `gorm:"not null;index" json:"status"`
	Details     string    `json:"details,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New()
	}
	return nil
}
