package consts

// 文章状态
const (
	PostStatusDraft     int8 = 0
	PostStatusPublished int8 = 1
)

// 评论状态，REJECTED 只出现在审核日志里，驳回的评论会被物理删除
const (
	CommentStatusPending  int8 = 0
	CommentStatusApproved int8 = 1
	CommentStatusRejected int8 = 2
)

var commentStatusNames = map[int8]string{
	CommentStatusPending:  "pending",
	CommentStatusApproved: "approved",
	CommentStatusRejected: "rejected",
}

// CommentStatusName 未知状态返回空串
func CommentStatusName(status int8) string {
	return commentStatusNames[status]
}

// ParseCommentStatus 支持 pending / approved / rejected
func ParseCommentStatus(name string) (int8, bool) {
	for k, v := range commentStatusNames {
		if v == name {
			return k, true
		}
	}
	return 0, false
}

// 审核动作
const (
	ModerationApprove = "approve"
	ModerationReject  = "reject"
	ModerationDelete  = "delete"
)

// 内置角色
const (
	RoleAdmin     = "ADMIN"
	RoleEditor    = "EDITOR"
	RoleModerator = "MODERATOR"
)

const (
	UserIDKey      = "user_id"
	RolesKey       = "roles"
	PermissionsKey = "permissions"
)
