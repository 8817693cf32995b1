package domain

import "strings"

// Role is the two-level authorization flag carried by every identity.
// The zero value is not a valid role; values come from the constants
// below or from ParseRole.
type Role uint8

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

// ParseRole accepts exactly "USER" or "ADMIN".
func ParseRole(s string) (Role, error) {
	switch s {
	case "USER":
		return RoleUser, nil
	case "ADMIN":
		return RoleAdmin, nil
	}
	return 0, ErrInvalidRole
}

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "USER"
	case RoleAdmin:
		return "ADMIN"
	}
	return ""
}

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, ErrInvalidRole
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
