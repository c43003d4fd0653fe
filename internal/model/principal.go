package model

import "slices"

// Principal is the identity resolved from a verified session token.
type Principal struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

func (p *Principal) HasRole(role string) bool {
	if p == nil {
		return false
	}
	return slices.Contains(p.Roles, role)
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p *Principal) HasAnyRole(roles []string) bool {
	if p == nil {
		return false
	}
	for _, role := range roles {
		if slices.Contains(p.Roles, role) {
			return true
		}
	}
	return false
}
