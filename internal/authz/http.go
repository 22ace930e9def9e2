package authz

import "net/http"

// The HTTP verbs used by the API map 1:1 onto the CRUD actions. The mapping
// is fixed and identical for every module; transports wanting PATCH or bulk
// semantics must route through one of these four verbs before reaching the
// matrix.
var methodActions = map[string]Action{
	http.MethodGet:    ActionRead,
	http.MethodPost:   ActionCreate,
	http.MethodPut:    ActionUpdate,
	http.MethodDelete: ActionDelete,
}

// ActionForMethod translates an HTTP verb to its CRUD action. The second
// return is false for verbs outside the supported set.
func ActionForMethod(method string) (Action, bool) {
	action, ok := methodActions[method]
	return action, ok
}

// HasHTTPPermission reports whether the role may perform the HTTP method on
// the module. Unsupported methods are denied without consulting the matrix.
func HasHTTPPermission(role Role, module Module, method string) bool {
	action, ok := ActionForMethod(method)
	if !ok {
		return false
	}
	return HasPermission(role, module, action)
}
