package authz

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatrixTotality(t *testing.T) {
	for _, role := range Roles() {
		for _, module := range Modules() {
			level := ModuleAccess(role, module)
			require.Contains(t, []AccessLevel{AccessNone, AccessRead, AccessFull}, level,
				"role %s module %s", role, module)
		}
	}
}

func TestNoneDeniesEveryAction(t *testing.T) {
	for _, role := range Roles() {
		for _, module := range Modules() {
			if ModuleAccess(role, module) != AccessNone {
				continue
			}
			for _, action := range Actions() {
				require.False(t, HasPermission(role, module, action),
					"%s should not %s on %s under NONE", role, action, module)
			}
		}
	}
}

func TestReadGrantsExactlyRead(t *testing.T) {
	for _, role := range Roles() {
		for _, module := range Modules() {
			if ModuleAccess(role, module) != AccessRead {
				continue
			}
			require.True(t, HasPermission(role, module, ActionRead))
			require.False(t, HasPermission(role, module, ActionCreate))
			require.False(t, HasPermission(role, module, ActionUpdate))
			require.False(t, HasPermission(role, module, ActionDelete))
		}
	}
}

func TestFullNeverRemovesReadGrants(t *testing.T) {
	// Upgrading READ to FULL must keep every action READ would grant.
	for _, role := range Roles() {
		for _, module := range Modules() {
			if ModuleAccess(role, module) != AccessFull {
				continue
			}
			require.True(t, HasPermission(role, module, ActionRead),
				"%s/%s FULL must retain read", role, module)
			require.True(t, HasReadAccess(role, module))
			require.True(t, HasFullAccess(role, module))
		}
	}
}

func TestHTTPAdapterMatchesResolver(t *testing.T) {
	pairs := []struct {
		method string
		action Action
	}{
		{http.MethodGet, ActionRead},
		{http.MethodPost, ActionCreate},
		{http.MethodPut, ActionUpdate},
		{http.MethodDelete, ActionDelete},
	}
	for _, role := range Roles() {
		for _, module := range Modules() {
			for _, pair := range pairs {
				require.Equal(t,
					HasPermission(role, module, pair.action),
					HasHTTPPermission(role, module, pair.method),
					"%s %s on %s", role, pair.method, module)
			}
		}
	}
}

func TestHTTPAdapterDeniesUnsupportedMethods(t *testing.T) {
	for _, method := range []string{http.MethodPatch, http.MethodHead, http.MethodOptions, "BREW"} {
		require.False(t, HasHTTPPermission(RoleManagement, ModuleSales, method))
	}
}

func TestResolverIsStateless(t *testing.T) {
	first := HasPermission(RoleFinanceTeam, ModuleSales, ActionRead)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, HasPermission(RoleFinanceTeam, ModuleSales, ActionRead))
	}
}

func TestObservedScenarios(t *testing.T) {
	cases := []struct {
		name   string
		role   Role
		module Module
		method string
		want   bool
	}{
		{"management reads sales", RoleManagement, ModuleSales, http.MethodGet, true},
		{"qhse cannot read sales", RoleIMSQHSE, ModuleSales, http.MethodGet, false},
		{"finance reads sales", RoleFinanceTeam, ModuleSales, http.MethodGet, true},
		{"finance cannot create sales", RoleFinanceTeam, ModuleSales, http.MethodPost, false},
		{"hr manages employees", RoleAdminHR, ModuleEmployees, http.MethodPost, true},
		{"procurement owns sales", RoleProcurementBD, ModuleSales, http.MethodDelete, true},
		{"finance cannot delete payroll", RoleFinanceTeam, ModulePayroll, http.MethodDelete, false},
		{"only management touches settings", RoleAdminHR, ModuleSettings, http.MethodGet, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, HasHTTPPermission(tc.role, tc.module, tc.method))
		})
	}
}

func TestAccessibleModulesExcludesNone(t *testing.T) {
	for _, role := range Roles() {
		modules := AccessibleModules(role)
		seen := make(map[Module]bool, len(modules))
		for _, module := range modules {
			seen[module] = true
			require.NotEqual(t, AccessNone, ModuleAccess(role, module))
		}
		for _, module := range Modules() {
			if ModuleAccess(role, module) == AccessNone {
				require.False(t, seen[module])
			}
		}
	}

	require.Len(t, AccessibleModules(RoleManagement), len(Modules()))
}

func TestUnknownRolePanics(t *testing.T) {
	require.Panics(t, func() {
		HasPermission(Role("INTERN"), ModuleSales, ActionRead)
	})
	require.Panics(t, func() {
		ModuleAccess(RoleManagement, Module("warehouse"))
	})
}
