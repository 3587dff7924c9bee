package models

// Role is the ordered access level stored on a user and embedded in access
// tokens. The hierarchy is fixed: viewer < editor < admin < superadmin.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleEditor     Role = "editor"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

var roleRanks = map[Role]int{
	RoleViewer:     1,
	RoleEditor:     2,
	RoleAdmin:      3,
	RoleSuperadmin: 4,
}

// ParseRole validates a client-supplied role name.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	_, ok := roleRanks[r]
	return r, ok
}

// Rank returns the position of r in the hierarchy. Unknown roles rank 0,
// below every real role.
func (r Role) Rank() int {
	return roleRanks[r]
}

// AtLeast reports whether r satisfies a requirement of level min.
func (r Role) AtLeast(min Role) bool {
	return min.Rank() > 0 && r.Rank() >= min.Rank()
}
