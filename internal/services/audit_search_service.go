package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "vaultadmin/internal/errors"
	"vaultadmin/internal/models"
	"vaultadmin/internal/pagination"
)

// Sentinel display values for entries whose actor no longer exists (or was
// system-initiated). A deleted actor degrades the display fields, never the
// query.
const (
	unknownActorName  = "Unknown"
	unknownActorEmail = "N/A"
)

const (
	recentDefaultLimit = 50
	recentMaxLimit     = 100
)

// auditSearchService executes paginated and polling reads against the audit
// event store.
type auditSearchService struct {
	db *gorm.DB
}

// NewAuditSearchService creates a new AuditSearchServicer.
func NewAuditSearchService(db *gorm.DB) AuditSearchServicer {
	return &auditSearchService{db: db}
}

// Search returns one page of entries matching the filter, newest first.
// Ordering is created_at DESC with no secondary key; entries sharing a
// timestamp may appear in either relative order.
func (s *auditSearchService) Search(scope Scope, filter AuditFilter, page pagination.PageRequest) (*pagination.PageResponse[AuditLogEntry], error) {
	page.Clamp()

	base := applyAuditFilter(s.db.Model(&models.AuditLog{}), filter, scope.TenantID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.AuditLog
	if err := base.Scopes(pagination.Paginate(page)).
		Order("audit_logs.created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	enriched, err := enrichActors(s.db, entries)
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResponse(enriched, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// Recent returns entries created strictly after since, newest first, capped
// at limit. LatestTimestamp is the newest returned entry's timestamp, or the
// current time when nothing matched, so pollers can hand it back as the next
// cursor without gaps or duplicates (assuming the store assigns created_at
// monotonically).
func (s *auditSearchService) Recent(scope Scope, since *time.Time, limit int) (*RecentLogs, error) {
	if limit <= 0 {
		limit = recentDefaultLimit
	}
	if limit > recentMaxLimit {
		limit = recentMaxLimit
	}

	q := s.db.Model(&models.AuditLog{})
	if scope.TenantID != nil {
		q = q.Where("audit_logs.tenant_id = ?", *scope.TenantID)
	}
	if since != nil {
		q = q.Where("audit_logs.created_at > ?", *since)
	}

	var entries []models.AuditLog
	if err := q.Order("audit_logs.created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	enriched, err := enrichActors(s.db, entries)
	if err != nil {
		return nil, err
	}

	latest := time.Now()
	if len(enriched) > 0 {
		latest = enriched[0].CreatedAt
	}

	return &RecentLogs{Entries: enriched, LatestTimestamp: latest}, nil
}

// enrichActors resolves actor display fields in one batched lookup. Missing
// actors fall back to sentinel values. Shared by search and export reads.
func enrichActors(db *gorm.DB, entries []models.AuditLog) ([]AuditLogEntry, error) {
	ids := make([]string, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.ActorUserID != nil && !seen[*e.ActorUserID] {
			seen[*e.ActorUserID] = true
			ids = append(ids, *e.ActorUserID)
		}
	}

	actors := make(map[string]models.User, len(ids))
	if len(ids) > 0 {
		var users []models.User
		if err := db.Select("id", "name", "email").Where("id IN ?", ids).Find(&users).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for _, u := range users {
			actors[u.ID] = u
		}
	}

	enriched := make([]AuditLogEntry, 0, len(entries))
	for _, e := range entries {
		entry := AuditLogEntry{AuditLog: e, ActorName: unknownActorName, ActorEmail: unknownActorEmail}
		if e.ActorUserID != nil {
			if u, ok := actors[*e.ActorUserID]; ok {
				entry.ActorName = u.Name
				entry.ActorEmail = u.Email
			}
		}
		enriched = append(enriched, entry)
	}
	return enriched, nil
}
