package domain

import "time"

// Role is the capability level of a user
type Role string

const (
	RoleStudent   Role = "student"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether the role is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// CanClaim reports whether the role may claim tickets
func (r Role) CanClaim() bool {
	return r == RoleStudent
}

// CanManageEvents reports whether the role may create events and
// administer attendees
func (r Role) CanManageEvents() bool {
	return r == RoleOrganizer || r == RoleAdmin
}

// User represents an account in the system
type User struct {
	ID        string
	Name      string
	Email     string
	Role      Role
	CreatedAt time.Time
}

// Identity is the authenticated caller extracted from the request token.
// Capability checks happen once at the service boundary against this value.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   Role
}

// User materializes the identity as a user row. Identities come from
// JWTs, so rows are created lazily on the caller's first write.
func (i Identity) User(now time.Time) *User {
	return &User{
		ID:        i.UserID,
		Name:      i.Name,
		Email:     i.Email,
		Role:      i.Role,
		CreatedAt: now,
	}
}
