// Package policy decides request authorization from role, ownership and
// HTTP method alone. It is a pure function of its inputs with no store or
// network access, so it can be tested exhaustively without a running
// server.
package policy

import (
	"net/http"

	"reviewhub/internal/models"
)

// Role is the caller's effective role. Anonymous marks an unauthenticated
// request; the remaining values mirror models.UserRole.
type Role string

const (
	Anonymous Role = "anonymous"
	User      Role = "user"
	Moderator Role = "moderator"
	Admin     Role = "admin"
)

// FromUserRole converts a stored account role into a policy role.
func FromUserRole(r models.UserRole) Role {
	switch r {
	case models.RoleAdmin:
		return Admin
	case models.RoleModerator:
		return Moderator
	default:
		return User
	}
}

// Resource is the class of entity a request targets. The policy rules
// differ per class, not per concrete entity.
type Resource int

const (
	// Catalog covers categories, genres and titles: world-readable,
	// admin-writable reference data.
	Catalog Resource = iota
	// Feedback covers reviews and comments: world-readable, writable by
	// any authenticated user, editable by the author or staff.
	Feedback
	// Users covers the administrative account collection. The self-service
	// profile path is authenticated separately and never consults Allow.
	Users
)

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Allow reports whether a caller with the given role, owning or not owning
// the addressed entity, may perform method on a resource class.
func Allow(res Resource, role Role, isOwner bool, method string) bool {
	switch res {
	case Catalog:
		return safeMethod(method) || role == Admin
	case Feedback:
		if safeMethod(method) {
			return true
		}
		if role == Anonymous {
			return false
		}
		if method == http.MethodPost {
			return true
		}
		return isOwner || role == Moderator || role == Admin
	case Users:
		return role == Admin
	}
	return false
}
