package auth

import (
	"sort"
	"strings"
)

// Role is a coarse authorization tier carried by a bearer token.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Tier orders roles for comparisons. TierNone is the zero value.
type Tier int

const (
	TierNone Tier = iota
	TierViewer
	TierOperator
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierViewer:
		return string(RoleViewer)
	case TierOperator:
		return string(RoleOperator)
	case TierAdmin:
		return string(RoleAdmin)
	default:
		return "none"
	}
}

// RoleSet is the set of roles held by a caller. It is built once per request
// and never mutated afterwards.
type RoleSet struct {
	roles map[Role]struct{}
	tier  Tier
}

// NewRoleSet builds a role set from explicit role names. Unknown names are
// ignored and matching is case-insensitive.
func NewRoleSet(names ...string) RoleSet {
	set := RoleSet{roles: make(map[Role]struct{}, len(names))}
	for _, name := range names {
		role := Role(strings.ToLower(strings.TrimSpace(name)))
		switch role {
		case RoleViewer, RoleOperator, RoleAdmin:
			set.roles[role] = struct{}{}
		}
	}

	switch {
	case set.Has(RoleAdmin):
		set.tier = TierAdmin
	case set.Has(RoleOperator):
		set.tier = TierOperator
	case set.Has(RoleViewer):
		set.tier = TierViewer
	}
	return set
}

// ParseRoles builds a role set from a comma-delimited claim such as
// "viewer,operator".
func ParseRoles(claim string) RoleSet {
	if strings.TrimSpace(claim) == "" {
		return NewRoleSet()
	}
	return NewRoleSet(strings.Split(claim, ",")...)
}

// Has reports whether the set contains role.
func (s RoleSet) Has(role Role) bool {
	_, ok := s.roles[role]
	return ok
}

// Tier returns the highest tier in the set.
func (s RoleSet) Tier() Tier {
	return s.tier
}

// AtLeast reports whether the set's highest tier reaches min.
func (s RoleSet) AtLeast(min Tier) bool {
	return s.tier >= min
}

// Empty reports whether no known role is present.
func (s RoleSet) Empty() bool {
	return len(s.roles) == 0
}

// Names returns the roles in sorted order.
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(s.roles))
	for role := range s.roles {
		names = append(names, string(role))
	}
	sort.Strings(names)
	return names
}

func (s RoleSet) String() string {
	return strings.Join(s.Names(), ",")
}
