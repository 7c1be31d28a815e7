package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromNumber(t *testing.T) {
	for _, n := range []int{100, 200, 300, 400, 500} {
		role, err := FromNumber(n)
		require.NoError(t, err)
		require.Equal(t, Role(n), role)
	}

	_, err := FromNumber(999)
	require.ErrorIs(t, err, ErrInvalidRole)
	_, err = FromNumber(0)
	require.ErrorIs(t, err, ErrInvalidRole)
	_, err = FromNumber(-100)
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestPrivilegeOrdering(t *testing.T) {
	// Privilege descends solution_admin, tenant_admin, operational_manager,
	// customer, third_party regardless of the wire id values.
	descending := []Role{
		RoleSolutionAdmin,
		RoleTenantAdmin,
		RoleOperationalManager,
		RoleCustomer,
		RoleThirdParty,
	}
	for i, higher := range descending {
		for j, lower := range descending {
			got := higher.PrivilegeAtLeast(lower)
			require.Equal(t, i <= j, got, "%s vs %s", higher, lower)
		}
	}
}

func TestPrivilegeAtLeastRejectsUnknownRoles(t *testing.T) {
	require.False(t, Role(999).PrivilegeAtLeast(RoleThirdParty))
	require.False(t, RoleSolutionAdmin.PrivilegeAtLeast(Role(999)))
}

func TestRawWireComparisonWouldInvertPrivilege(t *testing.T) {
	// Guard against regressing to integer comparison of the wire ids: by
	// those numbers a third party would outrank a solution admin.
	require.Greater(t, int(RoleThirdParty), int(RoleSolutionAdmin))
	require.True(t, RoleSolutionAdmin.PrivilegeAtLeast(RoleThirdParty))
	require.False(t, RoleThirdParty.PrivilegeAtLeast(RoleSolutionAdmin))
}

func TestRoleString(t *testing.T) {
	require.Equal(t, "solution_admin", RoleSolutionAdmin.String())
	require.Equal(t, "third_party", RoleThirdParty.String())
	require.Equal(t, "unknown", Role(7).String())
}
