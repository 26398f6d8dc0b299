// Package auth defines the resolved caller of a request. Business logic
// never reads ambient session state; an Identity is produced once per
// request by the middleware and threaded through every call.
package auth

import "terramap/api/internal/models"

type Identity struct {
	UserID string
	Role   models.Role

	known bool
}

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = Identity{}

func NewIdentity(userID string, role models.Role) Identity {
	return Identity{UserID: userID, Role: role, known: true}
}

func (i Identity) Authenticated() bool { return i.known }

func (i Identity) Admin() bool { return i.known && i.Role == models.RoleAdmin }
