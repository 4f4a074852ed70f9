// Package authz decides whether a principal may perform an action on a
// theater. Decisions are pure and are recomputed on every request.
package authz

import "theaterops/theater-api/internal/auth"

type Action int

const (
	Read Action = iota
	Create
	Update
	Delete
)

func (a Action) String() string {
	switch a {
	case Read:
		return "read"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

type Decision int

const (
	Allow Decision = iota
	DenyUnauthenticated
	DenyForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenyUnauthenticated:
		return "deny_unauthenticated"
	case DenyForbidden:
		return "deny_forbidden"
	default:
		return "unknown"
	}
}

// Resource is the ownership metadata of the target theater. ManagerID is
// nil for unmanaged theaters and for Create.
type Resource struct {
	ManagerID *int
}

// Decide applies the rules in order: reads are public; create and delete
// need the Admin role; update needs Admin or ownership of the resource.
// Update assumes the resource exists.
func Decide(p *auth.Principal, action Action, res Resource) Decision {
	if action == Read {
		return Allow
	}
	if p == nil {
		return DenyUnauthenticated
	}

	switch action {
	case Create, Delete:
		if p.HasRole(auth.RoleAdmin) {
			return Allow
		}
	case Update:
		if p.HasRole(auth.RoleAdmin) || res.owns(p.ID) {
			return Allow
		}
	}
	return DenyForbidden
}

func (r Resource) owns(principalID int) bool {
	return r.ManagerID != nil && *r.ManagerID == principalID
}
