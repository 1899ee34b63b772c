package auth

// Role is the portal-wide account role. The set is closed: regular
// members, admins with delegated feature permissions, and the main
// admin who bypasses the permission map entirely.
type Role string

const (
	// RoleUser is a regular portal member with no admin access.
	RoleUser Role = "user"
	// RoleAdmin is an admin whose feature access is delegated via a permission map.
	RoleAdmin Role = "admin"
	// RoleMainAdmin is the super admin. Every feature is treated as granted
	// regardless of the stored permission map.
	RoleMainAdmin Role = "mainadmin"
)

// ParseRole maps a stored role string onto the closed role set.
// Anything unrecognized collapses to RoleUser so a malformed record can
// never widen access.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin
	case RoleMainAdmin:
		return RoleMainAdmin
	case RoleUser:
		return RoleUser
	default:
		return RoleUser
	}
}

// IsAdmin reports whether the role may enter the admin area at all.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleMainAdmin
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}
