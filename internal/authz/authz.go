// Package authz decides who may manage whom.
//
// Every actor and every custom role maps to a single integer position. Higher
// positions carry more authority, and all "can manage" checks compare positions
// with a strict less-than. The functions here are pure: they never touch the
// database or log, so callers may evaluate them freely.
package authz

// BaseRole is the coarse classification of an actor.
type BaseRole string

const (
	BaseRoleAdmin     BaseRole = "ADMIN"
	BaseRoleMember    BaseRole = "MEMBER"
	BaseRolePending   BaseRole = "PENDING"
	BaseRoleSuspended BaseRole = "SUSPENDED"
)

// Valid reports whether r is one of the known base roles.
func (r BaseRole) Valid() bool {
	switch r {
	case BaseRoleAdmin, BaseRoleMember, BaseRolePending, BaseRoleSuspended:
		return true
	}
	return false
}

// Permission is a capability tag carried by a custom role.
type Permission string

const (
	PermViewDashboard  Permission = "VIEW_DASHBOARD"
	PermManageMembers  Permission = "MANAGE_MEMBERS"
	PermManageProjects Permission = "MANAGE_PROJECTS"
	PermManageEvents   Permission = "MANAGE_EVENTS"
	PermManageSkills   Permission = "MANAGE_SKILLS"
	PermManageTags     Permission = "MANAGE_TAGS"
	PermManageRoles    Permission = "MANAGE_ROLES"
)

var allPermissions = []Permission{
	PermViewDashboard,
	PermManageMembers,
	PermManageProjects,
	PermManageEvents,
	PermManageSkills,
	PermManageTags,
	PermManageRoles,
}

// AllPermissions returns a copy of every known permission.
func AllPermissions() []Permission {
	perms := make([]Permission, len(allPermissions))
	copy(perms, allPermissions)
	return perms
}

// Valid reports whether p is a known permission tag.
func (p Permission) Valid() bool {
	for _, known := range allPermissions {
		if p == known {
			return true
		}
	}
	return false
}

const (
	// AdminPosition is the rank of every ADMIN actor. Custom roles must stay below it.
	AdminPosition = 999
	// InactivePosition is the rank of PENDING and SUSPENDED actors.
	InactivePosition = -1
	// MemberPosition is the rank of a MEMBER with no custom role.
	MemberPosition = 0
)

// Role is the part of a custom role the engine looks at.
type Role struct {
	ID          string
	Position    int
	Permissions []Permission
}

// Has reports whether the role carries p.
func (r *Role) Has(p Permission) bool {
	if r == nil {
		return false
	}
	for _, held := range r.Permissions {
		if held == p {
			return true
		}
	}
	return false
}

// Actor is an already-resolved user: identity, base role and optional custom role.
type Actor struct {
	ID         string
	BaseRole   BaseRole
	CustomRole *Role
}

func (a Actor) isAdmin() bool { return a.BaseRole == BaseRoleAdmin }

func (a Actor) isInactive() bool {
	return a.BaseRole == BaseRolePending || a.BaseRole == BaseRoleSuspended
}

// Position returns the authority rank of an actor.
// Unknown base roles rank with PENDING and SUSPENDED.
func Position(a Actor) int {
	switch {
	case a.isAdmin():
		return AdminPosition
	case a.BaseRole != BaseRoleMember:
		return InactivePosition
	case a.CustomRole != nil:
		return a.CustomRole.Position
	default:
		return MemberPosition
	}
}

// CanManageUser reports whether actor may act on target through the user
// management path. Nobody manages themselves here.
func CanManageUser(actor, target Actor) bool {
	if actor.ID == target.ID {
		return false
	}
	if actor.isAdmin() {
		return true
	}
	if target.isAdmin() {
		return false
	}
	return Position(target) < Position(actor)
}

// CanManageRole reports whether actor may view, edit, delete or move role.
func CanManageRole(actor Actor, role Role) bool {
	if actor.isAdmin() {
		return true
	}
	return role.Position < Position(actor)
}

// CanAssignRole reports whether actor may give target the proposed base role.
// Only admins grant ADMIN.
func CanAssignRole(actor, target Actor, proposed BaseRole) bool {
	if proposed == BaseRoleAdmin && !actor.isAdmin() {
		return false
	}
	if actor.isAdmin() {
		return true
	}
	return HasPermission(actor, PermManageMembers) && CanManageUser(actor, target)
}

// CanReorderRoles reports whether actor may reorder roles at all. Each moved
// role must still pass CanManageRole.
func CanReorderRoles(actor Actor) bool {
	return Position(actor) > InactivePosition
}

// HasPermission reports whether actor holds p.
func HasPermission(actor Actor, p Permission) bool {
	if actor.isAdmin() {
		return true
	}
	if actor.isInactive() || actor.BaseRole != BaseRoleMember {
		return false
	}
	return actor.CustomRole.Has(p)
}

// EffectivePermissions lists what actor holds, in canonical order.
func EffectivePermissions(actor Actor) []Permission {
	perms := make([]Permission, 0, len(allPermissions))
	for _, p := range allPermissions {
		if HasPermission(actor, p) {
			perms = append(perms, p)
		}
	}
	return perms
}

// ManageableRoles returns the subset of roles actor may manage, preserving order.
func ManageableRoles(actor Actor, roles []Role) []Role {
	manageable := make([]Role, 0, len(roles))
	for _, r := range roles {
		if CanManageRole(actor, r) {
			manageable = append(manageable, r)
		}
	}
	return manageable
}
