package identity

// RoleSnapshot is an immutable view of a role's permissions at the moment an
// actor's identity was resolved. Both built-in and custom roles reduce to a
// snapshot, so the evaluator never needs to know which kind it is looking at.
//
// The zero value is the deny-all snapshot: a snapshot built from a role that
// could not be resolved (deleted, malformed, missing) denies everything.
// Default-deny, never default-allow.
type RoleSnapshot struct {
	grants   PermissionSet
	resolved bool
}

// SnapshotFromBuiltin builds a snapshot from a built-in role. An unknown
// built-in identifier yields the deny-all snapshot.
func SnapshotFromBuiltin(role BuiltinRole) RoleSnapshot {
	if !role.IsValid() {
		return RoleSnapshot{}
	}
	return RoleSnapshot{grants: BuiltinPermissions(role), resolved: true}
}

// SnapshotFromRole builds a snapshot from a stored custom role. A nil role
// yields the deny-all snapshot.
func SnapshotFromRole(role *Role) RoleSnapshot {
	if role == nil {
		return RoleSnapshot{}
	}
	return RoleSnapshot{grants: role.Permissions.Clone(), resolved: true}
}

// DenyAll returns the snapshot that denies every (section, action) pair.
func DenyAll() RoleSnapshot {
	return RoleSnapshot{}
}

// Resolved reports whether the snapshot was built from an actual role.
func (s RoleSnapshot) Resolved() bool {
	return s.resolved
}

// Grants returns a copy of the snapshot's permission set.
func (s RoleSnapshot) Grants() PermissionSet {
	return s.grants.Clone()
}

// Evaluate is the single source of truth for authorization decisions: every
// mutating operation in the system asks it before touching state. It is a
// pure function of (snapshot, section, action) with no side effects and no
// I/O, so it can run on every request without adding latency or a failure
// surface beyond "role snapshot unavailable", which denies.
//
// A (section, action) pair absent from the snapshot denies.
func Evaluate(snapshot RoleSnapshot, section Section, action Action) bool {
	if !snapshot.resolved {
		return false
	}
	if !section.IsValid() || !section.Supports(action) {
		return false
	}
	return snapshot.grants.Allows(section, action)
}
