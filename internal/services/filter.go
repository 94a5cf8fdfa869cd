package services

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// DetailsFilter is the tri-state constraint on the details payload. The
// explicit Any case keeps "no constraint" unambiguous instead of overloading
// a boolean.
type DetailsFilter int

const (
	// DetailsAny imposes no constraint.
	DetailsAny DetailsFilter = iota
	// DetailsPresent matches entries with a non-empty details payload.
	DetailsPresent
	// DetailsAbsent matches entries with an empty or missing payload.
	DetailsAbsent
)

// AuditFilter is the single predicate type shared by simple search, advanced
// search, saved searches, and exports. Empty slices and nil bounds impose no
// constraint; every populated field is ANDed with the rest. A degenerate date
// range (end before start) is not rejected, it simply matches nothing --
// saved searches created under clock skew keep working instead of erroring.
type AuditFilter struct {
	Actions     []string      `json:"actions,omitempty"`
	Resources   []string      `json:"resources,omitempty"`
	Statuses    []string      `json:"statuses,omitempty"`
	UserIDs     []string      `json:"user_ids,omitempty"`
	IPAddresses []string      `json:"ip_addresses,omitempty"`
	StartDate   *time.Time    `json:"start_date,omitempty"`
	EndDate     *time.Time    `json:"end_date,omitempty"`
	SearchText  string        `json:"search_text,omitempty"`
	HasDetails  DetailsFilter `json:"has_details,omitempty"`
}

// needsActorJoin reports whether the filter must join the users table to
// evaluate the free-text clause against actor name and email.
func (f AuditFilter) needsActorJoin() bool {
	return strings.TrimSpace(f.SearchText) != ""
}

// applyAuditFilter composes the filter onto a base audit_logs query. The
// tenant scope, when resolvable, is always ANDed in; callers cannot widen
// their scope through filter input. Column references are qualified because
// the free-text clause may join users.
func applyAuditFilter(q *gorm.DB, f AuditFilter, tenantID *string) *gorm.DB {
	if tenantID != nil {
		q = q.Where("audit_logs.tenant_id = ?", *tenantID)
	}
	if len(f.Actions) > 0 {
		q = q.Where("audit_logs.action IN ?", f.Actions)
	}
	if len(f.Resources) > 0 {
		q = q.Where("audit_logs.resource IN ?", f.Resources)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("audit_logs.status IN ?", f.Statuses)
	}
	if len(f.UserIDs) > 0 {
		q = q.Where("audit_logs.actor_user_id IN ?", f.UserIDs)
	}
	if len(f.IPAddresses) > 0 {
		q = q.Where("audit_logs.ip_address IN ?", f.IPAddresses)
	}
	if f.StartDate != nil {
		q = q.Where("audit_logs.created_at >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("audit_logs.created_at <= ?", *f.EndDate)
	}

	switch f.HasDetails {
	case DetailsPresent:
		q = q.Where("audit_logs.details IS NOT NULL AND audit_logs.details <> ''")
	case DetailsAbsent:
		q = q.Where("audit_logs.details IS NULL OR audit_logs.details = ''")
	}

	if search := strings.TrimSpace(f.SearchText); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.Joins("LEFT JOIN users ON users.id = audit_logs.actor_user_id").
			Where(`LOWER(audit_logs.action) LIKE ?
				OR LOWER(audit_logs.resource) LIKE ?
				OR LOWER(audit_logs.ip_address) LIKE ?
				OR LOWER(users.name) LIKE ?
				OR LOWER(users.email) LIKE ?`,
				pattern, pattern, pattern, pattern, pattern)
	}

	return q
}

// SimpleFilter builds an AuditFilter from single-value query parameters. A
// one-element filter composes exactly like its advanced-search counterpart;
// both entry points share the predicate above so they cannot diverge.
func SimpleFilter(search, action, status, userID string, startDate, endDate *time.Time) AuditFilter {
	f := AuditFilter{
		SearchText: search,
		StartDate:  startDate,
		EndDate:    endDate,
	}
	if action != "" {
		f.Actions = []string{action}
	}
	if status != "" {
		f.Statuses = []string{status}
	}
	if userID != "" {
		f.UserIDs = []string{userID}
	}
	return f
}
