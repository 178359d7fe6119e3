package security

import (
	"Inkwell/internal/pkg/consts"
	"sort"
	"strings"
)

// 权限格式为 resource:action，支持 resource:* 与全局 *
const (
	PermAll = "*"

	PermPostRead    = "post:read"
	PermPostWrite   = "post:write"
	PermPostDelete  = "post:delete"
	PermCategoryAll = "category:*"
	PermTagAll      = "tag:*"

	PermCategoryWrite = "category:write"
	PermTagWrite      = "tag:write"

	PermCommentRead     = "comment:read"
	PermCommentModerate = "comment:moderate"
	PermCommentDelete   = "comment:delete"

	PermUserRead   = "user:read"
	PermUserManage = "user:manage"
	PermRoleManage = "role:manage"
	PermMediaWrite = "media:write"
)

// BuiltinRoles 初始化数据库时写入的内置角色
var BuiltinRoles = map[string][]string{
	consts.RoleAdmin:     {PermAll},
	consts.RoleEditor:    {"post:*", PermCategoryAll, PermTagAll, PermCommentRead, PermMediaWrite},
	consts.RoleModerator: {"comment:*", PermPostRead},
}

// HasPermission granted 中任一项精确匹配、资源通配或全局通配即放行
func HasPermission(granted []string, required string) bool {
	resource, _, _ := strings.Cut(required, ":")
	for _, p := range granted {
		switch {
		case p == PermAll:
			return true
		case p == required:
			return true
		case strings.HasSuffix(p, ":*") && strings.TrimSuffix(p, ":*") == resource:
			return true
		}
	}
	return false
}

// MergePermissions 去重后排序
func MergePermissions(groups ...[]string) []string {
	set := make(map[string]struct{})
	for _, group := range groups {
		for _, p := range group {
			p = strings.TrimSpace(p)
			if p != "" {
				set[p] = struct{}{}
			}
		}
	}
	merged := make([]string, 0, len(set))
	for p := range set {
		merged = append(merged, p)
	}
	sort.Strings(merged)
	return merged
}

// ValidPermission 校验权限字符串格式
func ValidPermission(p string) bool {
	if p == PermAll {
		return true
	}
	resource, action, ok := strings.Cut(p, ":")
	if !ok || resource == "" || action == "" {
		return false
	}
	return !strings.ContainsAny(resource+action, " \t:")
}
