package identity

// Role identifies a privilege level. The numeric values are wire identifiers
// carried in tokens and stored records; they are NOT a privilege ordering.
// Privilege is defined by the rank table below, where a higher rank outranks
// a lower one. Comparing raw role numbers directly is always wrong: by the
// wire numbering a third party (500) would outrank a solution admin (200).
// Every authorization gate must go through PrivilegeAtLeast.
type Role int

const (
	// RoleTenantAdmin administers a single tenant.
	RoleTenantAdmin Role = 100
	// RoleSolutionAdmin administers all tenants and is the only role that may
	// cross tenant boundaries.
	RoleSolutionAdmin Role = 200
	// RoleOperationalManager is tenant staff.
	RoleOperationalManager Role = 300
	// RoleCustomer is an end customer of a tenant.
	RoleCustomer Role = 400
	// RoleThirdParty is external software acting on behalf of a tenant,
	// e.g. a payment provider.
	RoleThirdParty Role = 500
)

var roleRanks = map[Role]int{
	RoleSolutionAdmin:      5,
	RoleTenantAdmin:        4,
	RoleOperationalManager: 3,
	RoleCustomer:           2,
	RoleThirdParty:         1,
}

var roleNames = map[Role]string{
	RoleSolutionAdmin:      "solution_admin",
	RoleTenantAdmin:        "tenant_admin",
	RoleOperationalManager: "operational_manager",
	RoleCustomer:           "customer",
	RoleThirdParty:         "third_party",
}

// FromNumber converts a raw numeric role identifier into a Role.
func FromNumber(n int) (Role, error) {
	role := Role(n)
	if !role.Valid() {
		return 0, ErrInvalidRole
	}
	return role, nil
}

// Valid reports whether the role maps to a known variant.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// PrivilegeAtLeast reports whether r holds the same or higher privilege than
// other. Unknown roles never satisfy the check.
func (r Role) PrivilegeAtLeast(other Role) bool {
	ra, ok := roleRanks[r]
	if !ok {
		return false
	}
	rb, ok := roleRanks[other]
	if !ok {
		return false
	}
	return ra >= rb
}

// String returns the stable role name.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "unknown"
}
