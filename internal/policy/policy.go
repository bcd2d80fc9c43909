// Package policy holds the authorization rules as pure decision
// functions. Handlers build an Actor from the request context and
// services ask the policy before any unsafe operation; safe (read-only)
// operations are never gated.
package policy

import (
	"github.com/google/uuid"

	"anoa.com/titlereview/internal/entity"
)

type Decision int

const (
	Allow Decision = iota
	// DenyAuthRequired means the actor is anonymous and must
	// authenticate first (maps to 401).
	DenyAuthRequired
	// DenyForbidden means the actor is authenticated but lacks the
	// privilege or ownership (maps to 403).
	DenyForbidden
)

// Actor is the requester as seen by the policy. The zero value is an
// anonymous actor.
type Actor struct {
	ID            uuid.UUID
	Role          string
	IsSuperuser   bool
	Authenticated bool
}

// IsAdminEquivalent is the one canonical definition of administrative
// privilege: role admin or the superuser flag.
func IsAdminEquivalent(a Actor) bool {
	return a.Authenticated && (a.Role == entity.RoleAdmin || a.IsSuperuser)
}

// CatalogWrite gates unsafe verbs on Category, Genre and Title.
// Moderators are deliberately not included.
func CatalogWrite(a Actor) Decision {
	if !a.Authenticated {
		return DenyAuthRequired
	}
	if IsAdminEquivalent(a) {
		return Allow
	}
	return DenyForbidden
}

// ContentCreate gates review and comment creation: any authenticated
// actor may create.
func ContentCreate(a Actor) Decision {
	if !a.Authenticated {
		return DenyAuthRequired
	}
	return Allow
}

// ContentModify gates update/delete of a review or comment: the author,
// any moderator, or an admin-equivalent actor.
func ContentModify(a Actor, authorID uuid.UUID) Decision {
	if !a.Authenticated {
		return DenyAuthRequired
	}
	if IsAdminEquivalent(a) || a.Role == entity.RoleModerator || a.ID == authorID {
		return Allow
	}
	return DenyForbidden
}

// SelfProfile gates the /users/me surface.
func SelfProfile(a Actor) Decision {
	if !a.Authenticated {
		return DenyAuthRequired
	}
	return Allow
}

// UserAdmin gates full user administration.
func UserAdmin(a Actor) Decision {
	if !a.Authenticated {
		return DenyAuthRequired
	}
	if IsAdminEquivalent(a) {
		return Allow
	}
	return DenyForbidden
}
