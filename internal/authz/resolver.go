package authz

// Pure lookups over the static matrix. No side effects, no I/O; callers may
// invoke these from any goroutine without coordination.

// HasPermission reports whether the role may perform the action on the
// module. NONE access short-circuits to false regardless of action.
func HasPermission(role Role, module Module, action Action) bool {
	e := entry(role, module)
	if e.Level == AccessNone {
		return false
	}
	return e.Actions.Allows(action)
}

// ModuleAccess returns the access level for a (role, module) pair.
func ModuleAccess(role Role, module Module) AccessLevel {
	return entry(role, module).Level
}

// HasReadAccess reports whether the role can at least view the module.
func HasReadAccess(role Role, module Module) bool {
	return entry(role, module).Level >= AccessRead
}

// HasFullAccess reports whether the role can mutate the module.
func HasFullAccess(role Role, module Module) bool {
	return entry(role, module).Level == AccessFull
}

// AccessibleModules returns every module the role has any visibility into,
// in the canonical module order. Intended for navigation filtering only;
// enforcement must always re-check HasPermission or HasHTTPPermission at
// the point of use.
func AccessibleModules(role Role) []Module {
	modules := make([]Module, 0, len(Modules()))
	for _, module := range Modules() {
		if entry(role, module).Level != AccessNone {
			modules = append(modules, module)
		}
	}
	return modules
}
