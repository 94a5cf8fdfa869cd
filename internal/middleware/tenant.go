package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vaultadmin/internal/models"
)

const tenantIDKey = "tenantID"

// TenantResolver resolves the tenant scope for the request exactly once and
// stores it in the context. Resolution order: the X-Tenant-Subdomain header
// (set by the edge proxy from the request host), then the acting user's own
// tenant membership. A request with no resolvable tenant proceeds tenant-less;
// the scope is never taken from caller-supplied filter input.
// Must run after AuthMiddleware.
func TenantResolver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sub := c.GetHeader("X-Tenant-Subdomain"); sub != "" {
			var tenant models.Tenant
			err := db.Where("subdomain = ?", sub).First(&tenant).Error
			if err == nil {
				c.Set(tenantIDKey, tenant.ID)
				c.Next()
				return
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				// Store failure: fall through to the user fallback rather
				// than failing the whole request.
				c.Next()
				return
			}
		}

		if userID := c.GetString("userID"); userID != "" {
			var user models.User
			if err := db.Select("tenant_id").Where("id = ?", userID).First(&user).Error; err == nil && user.TenantID != nil {
				c.Set(tenantIDKey, *user.TenantID)
			}
		}

		c.Next()
	}
}

// TenantID returns the resolved tenant scope for the request, or nil when the
// request is tenant-less.
func TenantID(c *gin.Context) *string {
	if v, ok := c.Get(tenantIDKey); ok {
		if id, ok := v.(string); ok && id != "" {
			return &id
		}
	}
	return nil
}
