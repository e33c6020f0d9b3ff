package model

import (
	"slices"
)

const (
	RoleAdmin  = "ADMIN"
	RoleEditor = "EDITOR"
)

// Principal is the authenticated caller, taken from a verified token.
type Principal struct {
	UserID int64    `json:"userId"`
	Roles  []string `json:"roles"`
}

// HasAnyRole reports whether the principal holds at least one of roles.
func (p *Principal) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(p.Roles, r) {
			return true
		}
	}
	return false
}
