package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"vaultadmin/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestTenant creates a tenant with a unique subdomain.
func CreateTestTenant(t *testing.T, db *gorm.DB) *models.Tenant {
	t.Helper()

	n := nextID()
	tenant := &models.Tenant{
		Name:      fmt.Sprintf("Test Tenant %d", n),
		Subdomain: fmt.Sprintf("tenant%d", n),
	}
	if err := db.Create(tenant).Error; err != nil {
		t.Fatalf("failed to create test tenant: %v", err)
	}
	return tenant
}

// CreateTestUser creates an auditor with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB, tenantID *string) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, tenantID, models.RoleAuditor)
}

// CreateTestUserWithRole creates a user with the given role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, tenantID *string, role string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := nextID()
	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", n),
		Password: string(hash),
		Name:     fmt.Sprintf("Test User %d", n),
		Role:     role,
		TenantID: tenantID,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// AuditLogSpec describes an audit entry fixture; zero values get defaults.
type AuditLogSpec struct {
	TenantID    *string
	ActorUserID *string
	Action      string
	Resource    string
	IPAddress   string
	Status      string
	Details     string
	CreatedAt   time.Time
}

// CreateTestAuditLog creates an audit entry from the given fields. CreatedAt
// is written with a raw update because GORM would otherwise overwrite it.
func CreateTestAuditLog(t *testing.T, db *gorm.DB, spec AuditLogSpec) *models.AuditLog {
	t.Helper()

	if spec.Action == "" {
		spec.Action = "LOGIN"
	}
	if spec.Resource == "" {
		spec.Resource = "User"
	}
	if spec.Status == "" {
		spec.Status = models.StatusSuccess
	}
	if spec.CreatedAt.IsZero() {
		spec.CreatedAt = time.Now()
	}

	entry := &models.AuditLog{
		TenantID:    spec.TenantID,
		ActorUserID: spec.ActorUserID,
		Action:      spec.Action,
		Resource:    spec.Resource,
		IPAddress:   spec.IPAddress,
		Status:      spec.Status,
		Details:     spec.Details,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test audit log: %v", err)
	}
	if err := db.Model(&models.AuditLog{}).Where("id = ?", entry.ID).
		Update("created_at", spec.CreatedAt).Error; err != nil {
		t.Fatalf("failed to set audit log timestamp: %v", err)
	}
	entry.CreatedAt = spec.CreatedAt
	return entry
}

// CreateTestSavedSearch creates a saved search owned by the given user.
func CreateTestSavedSearch(t *testing.T, db *gorm.DB, userID string, name *string) *models.SavedSearch {
	t.Helper()

	search := &models.SavedSearch{
		UserID:      userID,
		Name:        name,
		SearchQuery: "",
		LastUsedAt:  time.Now(),
	}
	if err := db.Create(search).Error; err != nil {
		t.Fatalf("failed to create test saved search: %v", err)
	}
	return search
}
