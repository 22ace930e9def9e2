package authz

// Role identifies a class of user. The set is closed; roles are assigned at
// profile creation and changed only through an administrative action.
type Role string

const (
	RoleManagement    Role = "MANAGEMENT"
	RoleFinanceTeam   Role = "FINANCE_TEAM"
	RoleProcurementBD Role = "PROCUREMENT_BD"
	RoleAdminHR       Role = "ADMIN_HR"
	RoleIMSQHSE       Role = "IMS_QHSE"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleManagement, RoleFinanceTeam, RoleProcurementBD, RoleAdminHR, RoleIMSQHSE}
}

// Valid reports whether the role belongs to the enumerated set.
func (r Role) Valid() bool {
	switch r {
	case RoleManagement, RoleFinanceTeam, RoleProcurementBD, RoleAdminHR, RoleIMSQHSE:
		return true
	}
	return false
}

// Module identifies a functional area of the system. A role's permission on
// one module has no bearing on another.
type Module string

const (
	ModuleSales          Module = "sales"
	ModuleFinance        Module = "finance"
	ModulePayroll        Module = "payroll"
	ModuleEmployees      Module = "employees"
	ModuleAttendance     Module = "attendance"
	ModuleQHSE           Module = "qhse"
	ModuleOrganizational Module = "organizational"
	ModuleTemplates      Module = "templates"
	ModuleReports        Module = "reports"
	ModuleSettings       Module = "settings"
)

// Modules lists every known module key.
func Modules() []Module {
	return []Module{
		ModuleSales,
		ModuleFinance,
		ModulePayroll,
		ModuleEmployees,
		ModuleAttendance,
		ModuleQHSE,
		ModuleOrganizational,
		ModuleTemplates,
		ModuleReports,
		ModuleSettings,
	}
}

// AccessLevel is the coarse permission tier for a (role, module) pair.
// The tiers are totally ordered: AccessNone < AccessRead < AccessFull.
type AccessLevel int

const (
	AccessNone AccessLevel = iota
	AccessRead
	AccessFull
)

// String returns the canonical name of the level.
func (l AccessLevel) String() string {
	switch l {
	case AccessNone:
		return "NONE"
	case AccessRead:
		return "READ"
	case AccessFull:
		return "FULL"
	}
	return "UNKNOWN"
}

// Action is the fine-grained permission unit checked per operation.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actions lists the four CRUD actions.
func Actions() []Action {
	return []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
}

// Permissions holds the per-module CRUD booleans.
type Permissions struct {
	Create bool
	Read   bool
	Update bool
	Delete bool
}

// Allows returns the boolean for a single action.
func (p Permissions) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return p.Create
	case ActionRead:
		return p.Read
	case ActionUpdate:
		return p.Update
	case ActionDelete:
		return p.Delete
	}
	return false
}

// Entry pairs an access level with its action booleans.
type Entry struct {
	Level   AccessLevel
	Actions Permissions
}
