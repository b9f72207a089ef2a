// Package permissions checks family-member permissions with wildcard support.
//
// Permission Format:
//   - "*" - Full access (all permissions)
//   - "resource.*" - All actions on a resource (e.g., "items.*")
//   - "resource.action" - Specific action (e.g., "items.read")
package permissions

import (
	"sort"
	"strings"
)

// Family permissions
const (
	ItemsRead        = "items.read"
	ItemsWrite       = "items.write"
	ItemsDelete      = "items.delete"
	CategoriesManage = "categories.manage"
	LocationsManage  = "locations.manage"
	AnalyticsView    = "analytics.view"
	FamilyManage     = "family.manage"
	ActivitiesOwn    = "activities.own"
	All              = "*"
)

// Family roles
const (
	RoleAdmin  = "admin"
	RoleParent = "parent"
	RoleChild  = "child"
	RoleGuest  = "guest"
)

// Role describes a family role and what it may do.
type Role struct {
	Key         string   `json:"key"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

var roles = map[string]Role{
	RoleAdmin: {
		Key:         RoleAdmin,
		Name:        "관리자",
		Description: "가족 설정 및 사용자 관리",
		Permissions: []string{All},
	},
	RoleParent: {
		Key:         RoleParent,
		Name:        "부모",
		Description: "전체 관리 권한",
		Permissions: []string{
			ItemsRead, ItemsWrite, ItemsDelete,
			CategoriesManage, LocationsManage,
			AnalyticsView, FamilyManage,
		},
	},
	RoleChild: {
		Key:         RoleChild,
		Name:        "자녀",
		Description: "기본 사용 권한",
		Permissions: []string{ItemsRead, ItemsWrite, ActivitiesOwn},
	},
	RoleGuest: {
		Key:         RoleGuest,
		Name:        "손님",
		Description: "읽기 전용",
		Permissions: []string{ItemsRead},
	},
}

// LookupRole returns the role definition for key.
func LookupRole(key string) (Role, bool) {
	r, ok := roles[key]
	return r, ok
}

// ForRole returns a copy of the permissions granted to a role.
// Unknown roles get nothing.
func ForRole(key string) []string {
	r, ok := roles[key]
	if !ok {
		return nil
	}
	out := make([]string, len(r.Permissions))
	copy(out, r.Permissions)
	return out
}

// Roles returns all role definitions ordered by key.
func Roles() []Role {
	out := make([]Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// IsValidRole reports whether key names a known role.
func IsValidRole(key string) bool {
	_, ok := roles[key]
	return ok
}

// HasPermission checks if the user's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "items.*" matches "items.read", "items.write", etc.
//   - Exact match for specific permissions
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true
	}

	for _, p := range userPerms {
		if p == All || p == required {
			return true
		}
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission checks if the user has any of the required permissions.
func HasAnyPermission(userPerms []string, required []string) bool {
	for _, req := range required {
		if HasPermission(userPerms, req) {
			return true
		}
	}
	return false
}

// HasAllPermissions checks if the user has all of the required permissions.
func HasAllPermissions(userPerms []string, required []string) bool {
	for _, req := range required {
		if !HasPermission(userPerms, req) {
			return false
		}
	}
	return true
}

// RoleHasPermission checks a role's static permission set.
func RoleHasPermission(role, required string) bool {
	return HasPermission(ForRole(role), required)
}
