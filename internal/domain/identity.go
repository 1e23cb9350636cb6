package domain

// Identity is the caller of an operation as resolved from its credential.
// The zero value is Anonymous.
type Identity struct {
	UserID int64
}

// Anonymous is the identity of an unauthenticated caller.
var Anonymous = Identity{}

// IsAnonymous reports whether no user was resolved.
func (i Identity) IsAnonymous() bool {
	return i.UserID <= 0
}

// Owns reports whether i is the author of r.
func (i Identity) Owns(r *Review) bool {
	return !i.IsAnonymous() && r != nil && r.UserID == i.UserID
}
