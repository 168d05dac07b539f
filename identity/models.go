package identity

import "errors"

// ErrUnauthenticated signals that no valid session could be established.
// All resolution failures collapse into this error so a broken store read
// can never surface as an elevated role.
var ErrUnauthenticated = errors.New("identity: unauthenticated")

type Role string

const (
	RoleCompany Role = "company"
	RoleAdmin   Role = "admin"
)

// Identity is a resolved user with its authoritative role. The Role field is
// always the value read from the profiles table at resolution time; token
// claims are advisory only.
type Identity struct {
	ID          string
	Email       string
	Role        Role
	CompanyName string
}

// IsAdmin reports whether the store-derived role grants administrator
// privileges. This is the only admin check the rest of the system uses.
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}
