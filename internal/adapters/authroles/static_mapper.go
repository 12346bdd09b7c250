package authroles

import (
	domainauth "github.com/cutdesk/cutdesk/internal/domain/auth"
)

// StaticRoleMapper is the lenient two-role policy: the admin group wins,
// every other token (including one with no groups) maps to the user role.
type StaticRoleMapper struct {
	AdminGroup string
}

func (m StaticRoleMapper) Map(groups []string) domainauth.Role {
	for _, g := range groups {
		if m.AdminGroup != "" && g == m.AdminGroup {
			return domainauth.RoleAdmin
		}
	}
	return domainauth.RoleUser
}

// GroupRole binds a provider group to a role.
type GroupRole struct {
	Group string
	Role  domainauth.Role
}

// OrderedRoleMapper is the strict policy. Entries are checked in declaration
// order and the first one present in the token wins, so the table must list
// the most privileged group first. Tokens without a recognised group map to
// RoleNone, which route guards treat as access denied.
type OrderedRoleMapper struct {
	Table []GroupRole
}

// NewOrderedRoleMapper builds the strict mapper for the admin and user groups.
func NewOrderedRoleMapper(adminGroup, userGroup string) OrderedRoleMapper {
	return OrderedRoleMapper{Table: []GroupRole{
		{Group: adminGroup, Role: domainauth.RoleAdmin},
		{Group: userGroup, Role: domainauth.RoleUser},
	}}
}

func (m OrderedRoleMapper) Map(groups []string) domainauth.Role {
	if len(groups) == 0 {
		return domainauth.RoleNone
	}
	present := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		present[g] = struct{}{}
	}
	for _, entry := range m.Table {
		if entry.Group == "" {
			continue
		}
		if _, ok := present[entry.Group]; ok {
			return entry.Role
		}
	}
	return domainauth.RoleNone
}
