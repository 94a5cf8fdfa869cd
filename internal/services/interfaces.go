package services

import (
	"time"

	"vaultadmin/internal/models"
	"vaultadmin/internal/pagination"
)

// Scope carries the request's resolved identity: the acting user and the
// tenant the request is bound to (nil for tenant-less, system-wide access).
// It is resolved once per request by middleware and passed down explicitly;
// services never re-derive it.
type Scope struct {
	UserID   string
	TenantID *string
}

// AuditLogEntry is an audit event enriched with denormalized actor display
// fields resolved at read time.
type AuditLogEntry struct {
	models.AuditLog
	ActorName  string `json:"actor_name"`
	ActorEmail string `json:"actor_email"`
}

// RecentLogs is the result of a polling read: entries newer than the caller's
// cursor plus the timestamp to use as the next cursor.
type RecentLogs struct {
	Entries         []AuditLogEntry `json:"logs"`
	LatestTimestamp time.Time       `json:"latest_timestamp"`
}

// AuditSearchServicer defines the contract for querying the audit event store.
type AuditSearchServicer interface {
	Search(scope Scope, filter AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[AuditLogEntry], error)
	Recent(scope Scope, since *time.Time, limit int) (*RecentLogs, error)
}

// MetricStat is a point-in-time metric value with period-over-period change.
type MetricStat struct {
	Value      int64  `json:"value"`
	Change     string `json:"change"`
	ChangeType string `json:"change_type"`
}

// AuditStats aggregates security and usage counters for one time window.
type AuditStats struct {
	TotalEvents     int64      `json:"total_events"`
	FailedLogins    MetricStat `json:"failed_logins"`
	PasswordChanges int64      `json:"password_changes"`
	SecurityAlerts  MetricStat `json:"security_alerts"`
}

// TrendPoint is one day bucket of a trend series.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// AnalyticsServicer defines the contract for windowed audit aggregation.
type AnalyticsServicer interface {
	Stats(scope Scope, windowDays int) (*AuditStats, error)
	Trend(scope Scope, metric, period string) ([]TrendPoint, error)
}

// ArchiveResult reports a completed archival run.
type ArchiveResult struct {
	ArchivedCount int64  `json:"archived_count"`
	ArchiveID     string `json:"archive_id"`
}

// ArchiveServicer defines the contract for the audit archival lifecycle.
type ArchiveServicer interface {
	Archive(scope Scope, olderThanDays int, archiverUserID *string) (*ArchiveResult, error)
	ListArchives(scope Scope, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLogArchive], error)
}

// SavedSearchServicer defines the contract for per-user saved searches.
// Every operation is scoped to the owning user.
type SavedSearchServicer interface {
	Create(scope Scope, name *string, searchQuery string, filter *AuditFilter) (*models.SavedSearch, error)
	List(scope Scope) ([]models.SavedSearch, error)
	Delete(scope Scope, id string) error
	Execute(scope Scope, id string) (string, *AuditFilter, error)
}

// ExportResult is a rendered export document.
type ExportResult struct {
	Content       string `json:"content"`
	MimeType      string `json:"mime_type"`
	FileExtension string `json:"file_extension"`
	Count         int    `json:"count"`
}

// ExportServicer defines the contract for rendering filtered audit entries
// for external compliance tooling.
type ExportServicer interface {
	Export(scope Scope, filter AuditFilter, format string) (*ExportResult, error)
}

// AuditRecorder defines the append path into the audit event store.
type AuditRecorder interface {
	// Log records best-effort; failures are logged, never propagated.
	Log(scope Scope, action, resource string, resourceID *string, ipAddress, userAgent, status string, details map[string]any)
	// Record is the strict variant used where the entry is part of the
	// operation's contract.
	Record(scope Scope, action, resource string, resourceID *string, ipAddress, userAgent, status string, details map[string]any) error
}

// UserServicer defines the contract for operator accounts.
type UserServicer interface {
	CreateUser(email, password, name, role string, tenantID *string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
}
