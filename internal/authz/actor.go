// Package authz resolves who is acting on an inbound request.
package authz

// Actor is the authorization context for one inbound action. It is resolved
// once at the transport boundary and passed by value.
type Actor struct {
	UserID int64
	Admin  bool
}

// Admins is the configured set of privileged user ids.
type Admins struct {
	ids map[int64]struct{}
}

// NewAdmins builds an admin set from ids.
func NewAdmins(ids []int64) Admins {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return Admins{ids: m}
}

// IsAdmin reports whether id is privileged.
func (a Admins) IsAdmin(id int64) bool {
	_, ok := a.ids[id]
	return ok
}

// Resolve returns the Actor for userID.
func (a Admins) Resolve(userID int64) Actor {
	return Actor{UserID: userID, Admin: a.IsAdmin(userID)}
}
