package tenants

import "time"

// Tenant represents an isolated customer organisation. All user records are
// partitioned by tenant id; only solution admins may act across tenants.
type Tenant struct {
	ID        string
	Name      string
	Type      string
	Subdomain string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateTenantData carries the fields required to provision a tenant together
// with its first administrator account.
type CreateTenantData struct {
	Name          string
	Type          string
	Subdomain     string
	AdminEmail    string
	AdminName     string
	AdminPassword string
}

// Routing identifies which tenant an email address signs in under. It is
// resolved before authentication so the login flow can address the right
// tenant identity provider.
type Routing struct {
	TenantID   string `json:"tenantId"`
	TenantType string `json:"tenantType"`
}
