package models

// Tenant is an isolated customer scope. Subdomain is the public handle used
// to resolve the scope of an incoming request.
type Tenant struct {
	Base
	Name      string `gorm:"not null" json:"name"`
	Subdomain string `gorm:"uniqueIndex;not null" json:"subdomain"`
}
