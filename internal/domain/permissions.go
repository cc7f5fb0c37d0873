package domain

// Permission names a capability gated by role.
type Permission string

const (
	PermManageUsers      Permission = "canManageUsers"
	PermManageSectors    Permission = "canManageSectors"
	PermViewReports      Permission = "canViewReports"
	PermIssueTickets     Permission = "canIssueTickets"
	PermServeTickets     Permission = "canServeTickets"
	PermForwardTickets   Permission = "canForwardTickets"
	PermViewDisplayPanel Permission = "canViewDisplayPanel"
)

// PermissionSet is the capability matrix for one role.
type PermissionSet struct {
	CanManageUsers      bool `json:"canManageUsers"`
	CanManageSectors    bool `json:"canManageSectors"`
	CanViewReports      bool `json:"canViewReports"`
	CanIssueTickets     bool `json:"canIssueTickets"`
	CanServeTickets     bool `json:"canServeTickets"`
	CanForwardTickets   bool `json:"canForwardTickets"`
	CanViewDisplayPanel bool `json:"canViewDisplayPanel"`
}

// PermissionsFor computes the permissions of a role. Unknown roles get none.
func PermissionsFor(role UserRole) PermissionSet {
	switch role {
	case RoleAdmin:
		return PermissionSet{
			CanManageUsers:      true,
			CanManageSectors:    true,
			CanViewReports:      true,
			CanIssueTickets:     true,
			CanServeTickets:     true,
			CanForwardTickets:   true,
			CanViewDisplayPanel: true,
		}
	case RoleAttendant:
		return PermissionSet{
			CanServeTickets:     true,
			CanForwardTickets:   true,
			CanViewDisplayPanel: true,
		}
	case RoleReceptionist:
		return PermissionSet{
			CanIssueTickets:     true,
			CanViewDisplayPanel: true,
		}
	}
	return PermissionSet{}
}

// Allows reports whether the set grants p.
func (p PermissionSet) Allows(perm Permission) bool {
	switch perm {
	case PermManageUsers:
		return p.CanManageUsers
	case PermManageSectors:
		return p.CanManageSectors
	case PermViewReports:
		return p.CanViewReports
	case PermIssueTickets:
		return p.CanIssueTickets
	case PermServeTickets:
		return p.CanServeTickets
	case PermForwardTickets:
		return p.CanForwardTickets
	case PermViewDisplayPanel:
		return p.CanViewDisplayPanel
	}
	return false
}
