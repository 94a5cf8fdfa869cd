package models

import "time"

// SavedSearch is a per-user stored filter specification. A nil Name marks an
// implicit history entry; named and unnamed searches share the same lifecycle.
type SavedSearch struct {
	Base
	UserID      string    `gorm:"type:uuid;not null;index" json:"user_id"`
	TenantID    *string   `gorm:"type:uuid;index" json:"tenant_id,omitempty"`
	Name        *string   `json:"name,omitempty"`
	SearchQuery string    `json:"search_query"`
	Filters     string    `json:"filters,omitempty"`
	LastUsedAt  time.Time `gorm:"index" json:"last_used_at"`
}
