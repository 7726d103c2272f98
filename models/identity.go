package models

import "strings"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleSeller   Role = "seller"
	RoleAdmin    Role = "admin"
)

// Principal is the already authenticated caller of an operation.
type Principal struct {
	UserID string
	Roles  []Role
}

func (p Principal) HasRole(r Role) bool {
	for _, role := range p.Roles {
		if role == r {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// ParseRoles reads a comma separated role list such as "seller,customer".
// Unknown roles are dropped; an empty list means customer.
func ParseRoles(raw string) []Role {
	var roles []Role
	for _, part := range strings.Split(raw, ",") {
		switch r := Role(strings.ToLower(strings.TrimSpace(part))); r {
		case RoleCustomer, RoleSeller, RoleAdmin:
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		roles = []Role{RoleCustomer}
	}
	return roles
}
