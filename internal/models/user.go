package models

import "time"

// User roles. Admins and auditors hold audit visibility.
const (
	RoleAdmin   = "admin"
	RoleAuditor = "auditor"
	RoleMember  = "member"
)

// User represents an operator account in the console.
type User struct {
	Base
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	Name        string     `json:"name"`
	Role        string     `gorm:"not null;default:member" json:"role"`
	TenantID    *string    `gorm:"type:uuid;index" json:"tenant_id,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// HasAuditVisibility reports whether the user may read audit data.
func (u *User) HasAuditVisibility() bool {
	return u.Role == RoleAdmin || u.Role == RoleAuditor
}
