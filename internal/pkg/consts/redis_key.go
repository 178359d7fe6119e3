package consts

const (
	PostDetailCacheKey   = "post:detail:"
	PostSlugCacheKey     = "post:slug:"
	PostCommentsCacheKey = "post:comments:"
	PostArchivesCacheKey = "post:archives"
	PostCommentDirtyKey  = "post:comment:dirty"
	PostViewKey          = "post:view:"
	PostViewDirtyKey     = "post:view:dirty"
	TokenBlacklistKey    = "token:blacklist:"
	UserSessionRevokeKey = "token:revoked:user:"
)

const (
	CommentSubmitLock = "lock:comment:submit:"
	RenderJobLock     = "lock:job:render"
)
