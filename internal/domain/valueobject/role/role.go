package role

import (
	"fmt"
	"strings"
)

// Role is the closed set of platform roles carried in access tokens.
type Role string

const (
	Customer   Role = "CUSTOMER"
	Instructor Role = "INSTRUCTOR"
	Admin      Role = "ADMIN"
)

// Default is assigned on self registration.
const Default = Customer

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	switch r {
	case Customer, Instructor, Admin:
		return true
	default:
		return false
	}
}

// Parse accepts any letter case and rejects values outside the enumeration.
func Parse(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, other := range roles {
		if r == other {
			return true
		}
	}
	return false
}
