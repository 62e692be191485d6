package model

import "interntrack/pkg/rbac"

// Actor is the authenticated user a service call is made on behalf of.
type Actor struct {
	UserID int64
	Role   string
}

func (a Actor) IsAdmin() bool {
	return a.Role == rbac.RoleAdmin
}

// Can reports whether the actor's role grants permission.
func (a Actor) Can(permission string) bool {
	return rbac.HasPermission(a.Role, permission)
}

// Owns reports whether the actor may act on a row owned by userID.
func (a Actor) Owns(userID int64) bool {
	return a.IsAdmin() || a.UserID == userID
}
