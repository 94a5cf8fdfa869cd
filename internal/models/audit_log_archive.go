package models

import (
	"time"

	"vaultadmin/internal/uuid"

	"gorm.io/gorm"
)

// AuditLogArchive is one record per archival run. EntryCount always equals
// the number of AuditLog rows deleted in the same transaction that created
// the record; a nil TenantID marks a system-wide run.
type AuditLogArchive struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID       *string   `gorm:"type:uuid;index" json:"tenant_id,omitempty"`
	ArchiveDate    time.Time `gorm:"index" json:"archive_date"`
	ArchiverUserID *string   `gorm:"type:uuid" json:"archiver_user_id,omitempty"`
	EntryCount     int64     `gorm:"not null" json:"entry_count"`
	CutoffDate     time.Time `gorm:"not null" json:"cutoff_date"`
	Payload        []byte    `gorm:"type:bytea" json:"-"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (a *AuditLogArchive) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New()
	}
	return nil
}
