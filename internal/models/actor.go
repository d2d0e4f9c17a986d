package models

// Actor identifies who is performing an operation.
type Actor struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the actor holds the ADMIN role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// SystemActor is used by the admin CLI, which runs with operator privileges.
var SystemActor = Actor{Role: RoleAdmin}
