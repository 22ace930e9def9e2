package authz

import "fmt"

// The access control matrix is the single source of truth for every
// authorization decision in the system. It is built once at process start
// and never mutated; changing a role's permissions requires a code change
// and redeploy. Safe for unlimited concurrent readers.

func none() Entry {
	return Entry{Level: AccessNone}
}

func readOnly() Entry {
	return Entry{Level: AccessRead, Actions: Permissions{Read: true}}
}

func full() Entry {
	return Entry{Level: AccessFull, Actions: Permissions{Create: true, Read: true, Update: true, Delete: true}}
}

// fullNoDelete grants FULL access while keeping delete denied. Whether a
// module allows delete under FULL is a per-module business decision, not a
// structural rule.
func fullNoDelete() Entry {
	return Entry{Level: AccessFull, Actions: Permissions{Create: true, Read: true, Update: true}}
}

var matrix = map[Role]map[Module]Entry{
	RoleManagement: {
		ModuleSales:          full(),
		ModuleFinance:        full(),
		ModulePayroll:        full(),
		ModuleEmployees:      full(),
		ModuleAttendance:     full(),
		ModuleQHSE:           full(),
		ModuleOrganizational: full(),
		ModuleTemplates:      full(),
		ModuleReports:        fullNoDelete(),
		ModuleSettings:       full(),
	},
	RoleFinanceTeam: {
		ModuleSales:          readOnly(),
		ModuleFinance:        full(),
		ModulePayroll:        fullNoDelete(),
		ModuleEmployees:      readOnly(),
		ModuleAttendance:     readOnly(),
		ModuleQHSE:           none(),
		ModuleOrganizational: none(),
		ModuleTemplates:      readOnly(),
		ModuleReports:        fullNoDelete(),
		ModuleSettings:       none(),
	},
	RoleProcurementBD: {
		ModuleSales:          full(),
		ModuleFinance:        readOnly(),
		ModulePayroll:        none(),
		ModuleEmployees:      none(),
		ModuleAttendance:     none(),
		ModuleQHSE:           none(),
		ModuleOrganizational: readOnly(),
		ModuleTemplates:      fullNoDelete(),
		ModuleReports:        readOnly(),
		ModuleSettings:       none(),
	},
	RoleAdminHR: {
		ModuleSales:          none(),
		ModuleFinance:        none(),
		ModulePayroll:        fullNoDelete(),
		ModuleEmployees:      full(),
		ModuleAttendance:     full(),
		ModuleQHSE:           readOnly(),
		ModuleOrganizational: full(),
		ModuleTemplates:      full(),
		ModuleReports:        readOnly(),
		ModuleSettings:       none(),
	},
	RoleIMSQHSE: {
		ModuleSales:          none(),
		ModuleFinance:        none(),
		ModulePayroll:        none(),
		ModuleEmployees:      readOnly(),
		ModuleAttendance:     readOnly(),
		ModuleQHSE:           full(),
		ModuleOrganizational: readOnly(),
		ModuleTemplates:      readOnly(),
		ModuleReports:        readOnly(),
		ModuleSettings:       none(),
	},
}

func init() {
	mustValidateMatrix()
}

// mustValidateMatrix asserts totality and the structural level/action
// invariants. A gap or inconsistency is a configuration error that must
// surface at startup, not resolve to a silent 403 in production.
func mustValidateMatrix() {
	for _, role := range Roles() {
		perRole, ok := matrix[role]
		if !ok {
			panic(fmt.Sprintf("authz: matrix missing role %s", role))
		}
		for _, module := range Modules() {
			entry, ok := perRole[module]
			if !ok {
				panic(fmt.Sprintf("authz: matrix missing entry for %s/%s", role, module))
			}
			switch entry.Level {
			case AccessNone:
				if entry.Actions != (Permissions{}) {
					panic(fmt.Sprintf("authz: %s/%s grants actions under NONE", role, module))
				}
			case AccessRead:
				if entry.Actions != (Permissions{Read: true}) {
					panic(fmt.Sprintf("authz: %s/%s must grant exactly read under READ", role, module))
				}
			case AccessFull:
				if !entry.Actions.Read {
					panic(fmt.Sprintf("authz: %s/%s denies read under FULL", role, module))
				}
			default:
				panic(fmt.Sprintf("authz: %s/%s has unknown access level %d", role, module, entry.Level))
			}
		}
		if len(perRole) != len(Modules()) {
			panic(fmt.Sprintf("authz: matrix for %s contains unknown module keys", role))
		}
	}
	if len(matrix) != len(Roles()) {
		panic("authz: matrix contains unknown roles")
	}
}

// entry resolves the matrix cell for a (role, module) pair. An unknown role
// or module is a programming error and panics rather than silently denying.
func entry(role Role, module Module) Entry {
	perRole, ok := matrix[role]
	if !ok {
		panic(fmt.Sprintf("authz: unknown role %q", role))
	}
	e, ok := perRole[module]
	if !ok {
		panic(fmt.Sprintf("authz: unknown module %q for role %s", module, role))
	}
	return e
}
