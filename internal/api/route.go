package api

import (
	"Inkwell/internal/api/config"
	"Inkwell/internal/api/middleware"
	"Inkwell/internal/pkg/logger"
	"Inkwell/internal/pkg/security"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup, blacklist middleware.TokenBlacklist, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies(cfg.TrustedProxies)

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.AllowOrigins))
	logger.SetupGin(r)

	auth := middleware.AuthMiddleware(blacklist)
	perm := middleware.RequirePermission

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		postGroup := apiGroup.Group("/posts")
		{
			postGroup.GET("", group.PostHandler.ListPosts)
			postGroup.GET("/search", group.PostHandler.SearchPosts)
			postGroup.GET("/archives", group.PostHandler.GetArchives)
			postGroup.GET("/:slug", group.PostHandler.GetPostBySlug)
			postGroup.GET("/:slug/comments", group.CommentHandler.GetPostComments)
		}

		apiGroup.GET("/categories", group.TaxonomyHandler.ListCategories)
		apiGroup.GET("/tags", group.TaxonomyHandler.ListTags)
		apiGroup.POST("/comments", group.CommentHandler.SubmitComment)

		userGroup := apiGroup.Group("/user")
		{
			userGroup.POST("/login", group.UserHandler.Login)
			userGroup.POST("/logout", auth, group.UserHandler.Logout)
		}

		// 后台接口：登录 + 权限点
		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(auth, middleware.AuditMiddleware())
		{
			posts := adminGroup.Group("/posts")
			{
				posts.GET("", perm(security.PermPostRead), group.PostHandler.AdminListPosts)
				posts.GET("/:id", perm(security.PermPostRead), group.PostHandler.GetPost)
				posts.POST("", perm(security.PermPostWrite), group.PostHandler.CreatePost)
				posts.PUT("/:id", perm(security.PermPostWrite), group.PostHandler.UpdatePost)
				posts.DELETE("/:id", perm(security.PermPostDelete), group.PostHandler.DeletePost)
				posts.POST("/:id/render", perm(security.PermPostWrite), group.PostHandler.RenderPost)
			}

			categories := adminGroup.Group("/categories")
			categories.Use(perm(security.PermCategoryWrite))
			{
				categories.POST("", group.TaxonomyHandler.CreateCategory)
				categories.PUT("/:id", group.TaxonomyHandler.UpdateCategory)
				categories.DELETE("/:id", group.TaxonomyHandler.DeleteCategory)
			}

			tags := adminGroup.Group("/tags")
			tags.Use(perm(security.PermTagWrite))
			{
				tags.POST("", group.TaxonomyHandler.CreateTag)
				tags.PUT("/:id", group.TaxonomyHandler.UpdateTag)
				tags.DELETE("/:id", group.TaxonomyHandler.DeleteTag)
			}

			comments := adminGroup.Group("/comments")
			{
				comments.GET("", perm(security.PermCommentRead), group.CommentHandler.ListComments)
				comments.GET("/stats", perm(security.PermCommentRead), group.CommentHandler.GetStats)
				comments.GET("/logs", perm(security.PermCommentRead), group.CommentHandler.ListModerationLogs)
				comments.POST("", perm(security.PermCommentModerate), group.CommentHandler.CreateComment)
				comments.POST("/:id/approve", perm(security.PermCommentModerate), group.CommentHandler.ApproveComment)
				comments.POST("/:id/reject", perm(security.PermCommentModerate), group.CommentHandler.RejectComment)
				comments.DELETE("/:id", perm(security.PermCommentDelete), group.CommentHandler.DeleteComment)
				comments.POST("/batch/approve", perm(security.PermCommentModerate), group.CommentHandler.BatchApprove)
				comments.POST("/batch/delete", perm(security.PermCommentDelete), group.CommentHandler.BatchDelete)
			}

			users := adminGroup.Group("/users")
			{
				users.GET("", perm(security.PermUserRead), group.UserHandler.ListUsers)
				users.POST("/:id/ban", perm(security.PermUserManage), group.UserHandler.BanUser)
				users.POST("/:id/unban", perm(security.PermUserManage), group.UserHandler.UnbanUser)
				users.POST("/:id/roles", perm(security.PermRoleManage), group.UserHandler.AddUserRole)
				users.DELETE("/:id/roles/:role_id", perm(security.PermRoleManage), group.UserHandler.DeleteUserRole)
			}

			roles := adminGroup.Group("/roles")
			roles.Use(perm(security.PermRoleManage))
			{
				roles.GET("", group.UserHandler.GetAllRoles)
				roles.POST("", group.UserHandler.CreateRole)
			}

			adminGroup.POST("/media/upload", perm(security.PermMediaWrite), group.MediaHandler.Upload)
		}
	}

	return r
}
