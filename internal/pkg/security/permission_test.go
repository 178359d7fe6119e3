package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name     string
		granted  []string
		required string
		want     bool
	}{
		{"exact", []string{"comment:moderate"}, "comment:moderate", true},
		{"resource wildcard", []string{"comment:*"}, "comment:delete", true},
		{"global wildcard", []string{"*"}, "user:manage", true},
		{"other resource wildcard", []string{"post:*"}, "comment:read", false},
		{"prefix is not wildcard", []string{"comment"}, "comment:read", false},
		{"empty", nil, "post:read", false},
		{"any role grants", []string{"post:read", "tag:*"}, "tag:write", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasPermission(tt.granted, tt.required))
		})
	}
}

func TestBuiltinRoles(t *testing.T) {
	assert.True(t, HasPermission(BuiltinRoles["ADMIN"], PermRoleManage))
	assert.True(t, HasPermission(BuiltinRoles["EDITOR"], PermPostWrite))
	assert.False(t, HasPermission(BuiltinRoles["EDITOR"], PermCommentModerate))
	assert.True(t, HasPermission(BuiltinRoles["MODERATOR"], PermCommentDelete))
	assert.False(t, HasPermission(BuiltinRoles["MODERATOR"], PermPostWrite))
}

func TestMergePermissions(t *testing.T) {
	merged := MergePermissions([]string{"post:read", " comment:* "}, []string{"post:read", ""})
	assert.Equal(t, []string{"comment:*", "post:read"}, merged)
}

func TestValidPermission(t *testing.T) {
	assert.True(t, ValidPermission("*"))
	assert.True(t, ValidPermission("post:*"))
	assert.False(t, ValidPermission("post"))
	assert.False(t, ValidPermission("post:"))
	assert.False(t, ValidPermission("a:b:c"))
}
