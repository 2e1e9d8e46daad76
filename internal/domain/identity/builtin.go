package identity

// BuiltinRole is one of the fixed role identifiers every tenant gets without
// configuration. Their permission sets are compiled into the binary; only
// custom roles are stored.
type BuiltinRole string

const (
	BuiltinAdmin          BuiltinRole = "admin"
	BuiltinAdminReadonly  BuiltinRole = "admin_readonly"
	BuiltinOperator       BuiltinRole = "operator"
	BuiltinBillingManager BuiltinRole = "billing_manager"
)

// IsValid reports whether the value is a known built-in role.
func (r BuiltinRole) IsValid() bool {
	_, ok := builtinMatrix[r]
	return ok
}

// String returns the string form of the built-in role.
func (r BuiltinRole) String() string {
	return string(r)
}

// builtinMatrix is the static permission matrix for built-in roles.
// admin holds everything, admin_readonly sees everything and changes
// nothing, operator works their own timesheets, billing_manager runs the
// money-facing sections.
var builtinMatrix = map[BuiltinRole]PermissionSet{
	BuiltinAdmin:         fullAccessSet(),
	BuiltinAdminReadonly: viewOnlySet(),
	BuiltinOperator: {
		SectionTimesheet: {ActionView, ActionCreate, ActionUpdate, ActionDelete},
		SectionProjects:  {ActionView},
		SectionCosts:     {ActionView, ActionCreate},
		SectionDocuments: {ActionView, ActionUpload},
	},
	BuiltinBillingManager: {
		SectionInvoicing: {ActionView, ActionCreate, ActionUpdate, ActionDelete},
		SectionCosts:     {ActionView, ActionCreate, ActionUpdate, ActionDelete},
		SectionClients:   {ActionView},
		SectionSuppliers: {ActionView},
		SectionBilling:   {ActionView, ActionUpdate},
	},
}

// BuiltinPermissions returns the permission set of a built-in role, copied
// so callers cannot mutate the matrix. Unknown roles yield an empty set.
func BuiltinPermissions(role BuiltinRole) PermissionSet {
	ps, ok := builtinMatrix[role]
	if !ok {
		return PermissionSet{}
	}
	return ps.Clone()
}

// AllBuiltinRoles returns the built-in role identifiers.
func AllBuiltinRoles() []BuiltinRole {
	return []BuiltinRole{BuiltinAdmin, BuiltinAdminReadonly, BuiltinOperator, BuiltinBillingManager}
}
