// Package roles serves role management: custom roles are created and edited
// against the permission catalog, system roles are read-only.
package roles

import (
	"slices"
	"strconv"
	"strings"
)

// Role is a named permission bundle scoped to one company.
type Role struct {
	ID             string   `json:"_id" validate:"required"`
	Name           string   `json:"name" validate:"required"`
	Description    string   `json:"description"`
	PermissionKeys []string `json:"permission_keys"`
	CompanyID      string   `json:"company_id"`
	IsSystem       bool     `json:"is_system"`
}

// RowID implements mastertable.Row.
func (r Role) RowID() string { return r.ID }

// Field implements mastertable.Row.
func (r Role) Field(key string) string {
	switch key {
	case "name":
		return r.Name
	case "description":
		return r.Description
	case "permissions":
		return strconv.Itoa(len(r.PermissionKeys))
	case "type":
		if r.IsSystem {
			return "System"
		}
		return "Custom"
	}
	return ""
}

// Active implements mastertable.Row. Only custom roles can be removed.
func (r Role) Active() bool { return !r.IsSystem }

// Permission is one entry of the backend permission catalog.
type Permission struct {
	ID          string `json:"_id"`
	Key         string `json:"key" validate:"required"`
	Module      string `json:"module"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// ModuleGroup is the catalog grouped by module.
type ModuleGroup struct {
	Module      string       `json:"module" validate:"required"`
	Permissions []Permission `json:"permissions" validate:"dive"`
}

// Draft is the create and update body.
type Draft struct {
	Name           string   `json:"name" validate:"required" label:"Role name"`
	Description    string   `json:"description"`
	PermissionKeys []string `json:"permission_keys"`
}

func newDraft() Draft {
	return Draft{PermissionKeys: []string{}}
}

func cloneDraft(d Draft) Draft {
	d.PermissionKeys = append([]string{}, d.PermissionKeys...)
	return d
}

func draftOf(r Role) Draft {
	return cloneDraft(Draft{Name: r.Name, Description: r.Description, PermissionKeys: r.PermissionKeys})
}

// Assignment links a user to a role.
type Assignment struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
}

// EffectivePermissions is the sorted union of the roles' permission keys.
func EffectivePermissions(roles []Role) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range roles {
		for _, k := range r.PermissionKeys {
			k = strings.TrimSpace(k)
			if _, ok := seen[k]; ok || k == "" {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
