package models

// Role is the access level carried in a user's token
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsAdmin checks if the role is admin
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}
