package services

import (
	"encoding/json"

	"gorm.io/gorm"

	apperrors "vaultadmin/internal/errors"
	"vaultadmin/internal/logger"
	"vaultadmin/internal/models"
)

// auditRecorder is the append path into the audit event store.
type auditRecorder struct {
	db *gorm.DB
}

// NewAuditRecorder creates a new AuditRecorder.
func NewAuditRecorder(db *gorm.DB) AuditRecorder {
	return &auditRecorder{db: db}
}

// Log records an audit event best-effort. Errors are logged but never
// propagate, so recording can't disrupt the operation being audited.
func (r *auditRecorder) Log(scope Scope, action, resource string, resourceID *string, ipAddress, userAgent, status string, details map[string]any) {
	if err := r.Record(scope, action, resource, resourceID, ipAddress, userAgent, status, details); err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"user_id", scope.UserID,
			"action", action,
			"resource", resource,
		)
	}
}

// Record appends an audit event and reports failure to the caller. Used
// where the entry is part of the operation's contract (e.g. exports).
func (r *auditRecorder) Record(scope Scope, action, resource string, resourceID *string, ipAddress, userAgent, status string, details map[string]any) error {
	var detailsJSON string
	if details != nil {
		data, err := json.Marshal(details)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit details", "error", err, "action", action)
			detailsJSON = "{}"
		} else {
			detailsJSON = string(data)
		}
	}

	var actor *string
	if scope.UserID != "" {
		id := scope.UserID
		actor = &id
	}

	entry := &models.AuditLog{
		TenantID:    scope.TenantID,
		ActorUserID: actor,
		Action:      action,
		Resource:    resource,
		ResourceID:  resourceID,
		IPAddress:   ipAddress,
		UserAgent:   userAgent,
		Status:      status,
		Details:     detailsJSON,
	}
	if err := r.db.Create(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
