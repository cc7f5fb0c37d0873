package domain

import "time"

// UserRole labels an operator account.
type UserRole string

const (
	RoleAdmin        UserRole = "admin"
	RoleAttendant    UserRole = "attendant"
	RoleReceptionist UserRole = "receptionist"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleAttendant, RoleReceptionist:
		return true
	}
	return false
}

// User is an operator of the counter: admin, attendant or receptionist.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         UserRole   `json:"role"`
	SectorID     *string    `json:"sectorId,omitempty"`
	Active       bool       `json:"active"`
	PasswordHash string     `json:"-"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Sessions     []Session  `json:"sessions"`
}

// Permissions returns the permission set derived from the user's role.
func (u *User) Permissions() PermissionSet {
	return PermissionsFor(u.Role)
}
