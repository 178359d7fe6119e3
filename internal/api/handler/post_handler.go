package handler

import (
	"Inkwell/internal/api/dto"
	"Inkwell/internal/pkg/response"
	"Inkwell/internal/pkg/util"
	"Inkwell/internal/service"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	postSvc service.PostService
}

func NewPostHandler(postSvc service.PostService) *PostHandler {
	return &PostHandler{
		postSvc: postSvc,
	}
}

func (s *PostHandler) ListPosts(c *gin.Context) {
	s.listPosts(c, false)
}

func (s *PostHandler) AdminListPosts(c *gin.Context) {
	s.listPosts(c, true)
}

func (s *PostHandler) listPosts(c *gin.Context, admin bool) {
	var query dto.PostListQueryDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&query); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	posts, err := s.postSvc.ListPosts(c.Request.Context(), &query, admin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

func (s *PostHandler) GetPostBySlug(c *gin.Context) {
	post, err := s.postSvc.GetPostBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostHandler) SearchPosts(c *gin.Context) {
	var query dto.PostSearchDTO
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&query); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	posts, err := s.postSvc.SearchPosts(c.Request.Context(), query.Keyword, query.Page, query.PageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, posts)
}

func (s *PostHandler) GetArchives(c *gin.Context) {
	archives, err := s.postSvc.GetArchives(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, archives)
}

func (s *PostHandler) GetPost(c *gin.Context) {
	postID, ok := paramUint64(c, "id")
	if !ok {
		return
	}

	post, err := s.postSvc.GetPostByID(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostHandler) CreatePost(c *gin.Context) {
	userID := c.GetUint64("user_id")

	var req dto.PostBaseDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	post, err := s.postSvc.CreatePost(c.Request.Context(), userID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostHandler) UpdatePost(c *gin.Context) {
	postID, ok := paramUint64(c, "id")
	if !ok {
		return
	}

	var req dto.PostBaseDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&req); err != nil {
		response.Fail(c, response.BadRequest, err.Error())
		return
	}

	post, err := s.postSvc.UpdatePost(c.Request.Context(), postID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}

func (s *PostHandler) DeletePost(c *gin.Context) {
	postID, ok := paramUint64(c, "id")
	if !ok {
		return
	}

	if err := s.postSvc.DeletePost(c.Request.Context(), postID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// RenderPost 强制重新渲染并返回结果
func (s *PostHandler) RenderPost(c *gin.Context) {
	postID, ok := paramUint64(c, "id")
	if !ok {
		return
	}

	post, err := s.postSvc.RenderPost(c.Request.Context(), postID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, post)
}
