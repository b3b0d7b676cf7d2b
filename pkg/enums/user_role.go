package enums

import "fmt"

// UserRole is the platform-wide role carried in access token claims.
type UserRole string

const (
	UserRoleListener UserRole = "listener"
	UserRoleCreator  UserRole = "creator"
	UserRoleAdmin    UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleListener,
	UserRoleCreator,
	UserRoleAdmin,
}

// String returns the literal string for the role.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the role is known.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanPublish reports whether the role may own and mutate content items.
func (r UserRole) CanPublish() bool {
	return r == UserRoleCreator || r == UserRoleAdmin
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
